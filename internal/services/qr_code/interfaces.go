package qr_code

import "github.com/google/uuid"

// Service renders the QR codes printed on gift cards.
type Service interface {
	// Render returns the card's QR code as a PNG data URI.
	Render(cardID uuid.UUID) (string, error)
}
