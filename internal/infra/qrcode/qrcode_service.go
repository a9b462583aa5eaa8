package qrcode

import (
	"fmt"
	"net/url"
	"strings"

	"storefront/config"
	"storefront/internal/domain/service"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const listingPathPrefix = "/listing/"

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// NewQRCodeService creates a new listing share code service instance
func NewQRCodeService(cfg *config.Config) service.QRCodeService {
	size, level, baseURL := 256, "M", ""
	if cfg != nil && cfg.QRCode != nil {
		if cfg.QRCode.Size > 0 {
			size = cfg.QRCode.Size
		}
		level = cfg.QRCode.ErrorCorrectionLevel
		baseURL = cfg.QRCode.BaseURL
	}

	return newQRCodeService(size, level, baseURL)
}

func newQRCodeService(size int, errorCorrectionLevel, baseURL string) *qrcodeService {
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
		baseURL:              strings.TrimRight(baseURL, "/"),
	}
}

// ListingURL returns the shareable link of a listing page
func (s *qrcodeService) ListingURL(listingID uuid.UUID) string {
	return s.baseURL + listingPathPrefix + listingID.String()
}

// GenerateListingQR renders the listing link as a PNG QR code
func (s *qrcodeService) GenerateListingQR(listingID uuid.UUID) ([]byte, error) {
	qrCode, err := qrcode.New(s.ListingURL(listingID), s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}

// ParseListingQR extracts the listing ID from a scanned listing link
func (s *qrcodeService) ParseListingQR(qrData string) (uuid.UUID, error) {
	parsed, err := url.Parse(strings.TrimSpace(qrData))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse QR code link: %w", err)
	}

	idx := strings.LastIndex(parsed.Path, listingPathPrefix)
	if idx < 0 {
		return uuid.Nil, fmt.Errorf("invalid QR code link: %s", qrData)
	}

	listingID, err := uuid.Parse(strings.Trim(parsed.Path[idx+len(listingPathPrefix):], "/"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse listing ID: %w", err)
	}

	return listingID, nil
}
