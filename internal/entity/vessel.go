package entity

import "github.com/google/uuid"

// Vessel is the target entity certificates are filed against. The IMO
// number is the authoritative registry identifier used for ownership
// validation; the name is advisory.
type Vessel struct {
	ID        uuid.UUID `json:"id"`
	IMONumber string    `json:"imo_number"`
	Name      string    `json:"name"`
}
