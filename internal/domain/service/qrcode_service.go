package service

import (
	"github.com/google/uuid"
)

// QRCodeService defines the interface for listing share code generation and parsing
type QRCodeService interface {
	// GenerateListingQR renders a PNG QR code pointing at the listing page
	GenerateListingQR(listingID uuid.UUID) ([]byte, error)

	// ParseListingQR extracts the listing ID from scanned QR content
	ParseListingQR(qrData string) (uuid.UUID, error)
}
