// Package export renders batch results as XLSX workbooks for compliance
// officers reviewing an ingestion run.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/batch"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

type Reporter struct {
	logger *slog.Logger
}

func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger}
}

// BatchReportXLSX returns an XLSX workbook (as bytes) summarizing one
// batch run: one row per input file, in input order.
func (r *Reporter) BatchReportXLSX(vessel entity.Vessel, category constants.Category, res batch.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Batch"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File",
		"Status",
		"Certificate Name",
		"Certificate Number",
		"Issuing Authority",
		"Issue Date",
		"Valid Until",
		"Record ID",
		"Message",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, out := range res.Files {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, out.Filename)
		write(2, string(out.Status))

		if out.Fields != nil {
			write(3, out.Fields.String(constants.FieldCertificateName))
			write(4, out.Fields.String(constants.FieldCertificateNo))
			write(5, out.Fields.String(constants.FieldIssuingAuthority))
			write(6, out.Fields.String(constants.FieldIssueDate))
			write(7, out.Fields.String(constants.FieldValidUntil))
		}
		if out.Status == constants.TaskCompleted {
			write(8, out.RecordID.String())
		}

		msg := out.Message
		if len(out.Candidates) > 0 {
			msg = fmt.Sprintf("%s (best match %.0f%%)", msg, out.Candidates[0].Similarity*100)
		}
		write(9, truncate(msg, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // file
	_ = f.SetColWidth(sheet, "B", "B", 26) // status
	_ = f.SetColWidth(sheet, "C", "C", 34) // name
	_ = f.SetColWidth(sheet, "D", "E", 22) // number, authority
	_ = f.SetColWidth(sheet, "F", "G", 12) // dates
	_ = f.SetColWidth(sheet, "H", "H", 38) // record id
	_ = f.SetColWidth(sheet, "I", "I", 48) // message

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	r.logger.Info("export.batch_report.ok",
		"vessel", vessel.Name,
		"category", string(category),
		"rows", len(res.Files),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
