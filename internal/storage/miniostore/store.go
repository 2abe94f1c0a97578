// Package miniostore adapts a MinIO (or any S3-compatible) endpoint to the
// storage.RemoteStore contract. Folders are object-key prefixes; rename is
// server-side copy plus remove.
package miniostore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/odunayo-falade/fleetdocs/internal/storage"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// EnsurePath makes sure the bucket exists and returns the joined prefix as
// the folder reference. Object stores have no real folders, so there is
// nothing else to create.
func (s *Store) EnsurePath(ctx context.Context, segments []string) (storage.FolderRef, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
		s.logger.Info("store.bucket_created", "bucket", s.bucket)
	}

	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(strings.TrimSpace(seg), "/")
		if seg != "" {
			cleaned = append(cleaned, seg)
		}
	}
	return storage.FolderRef(strings.Join(cleaned, "/")), nil
}

func (s *Store) Upload(ctx context.Context, folder storage.FolderRef, filename string, data []byte, mimeType string) (string, error) {
	key := objectKey(folder, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return "", fmt.Errorf("put %q: %w", key, err)
	}
	return key, nil
}

// Rename keeps the object in its folder and changes the final path
// element. File ids are object keys here, so the returned id differs from
// the input and must replace it wherever it is recorded.
func (s *Store) Rename(ctx context.Context, fileID, newName string) (string, error) {
	newKey := objectKey(storage.FolderRef(path.Dir(fileID)), newName)
	if err := s.copyAndRemove(ctx, fileID, newKey); err != nil {
		return "", err
	}
	return newKey, nil
}

// Move relocates the object into the target folder keeping its name.
func (s *Store) Move(ctx context.Context, fileID string, target storage.FolderRef) (string, error) {
	newKey := objectKey(target, path.Base(fileID))
	if err := s.copyAndRemove(ctx, fileID, newKey); err != nil {
		return "", err
	}
	return newKey, nil
}

func (s *Store) Delete(ctx context.Context, fileID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %q: %w", fileID, err)
	}
	return nil
}

func (s *Store) copyAndRemove(ctx context.Context, oldKey, newKey string) error {
	if oldKey == newKey {
		return nil
	}
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: newKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: oldKey},
	)
	if err != nil {
		return fmt.Errorf("copy %q -> %q: %w", oldKey, newKey, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, oldKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove old %q: %w", oldKey, err)
	}
	return nil
}

func objectKey(folder storage.FolderRef, filename string) string {
	if folder == "" || folder == "." {
		return filename
	}
	return string(folder) + "/" + filename
}
