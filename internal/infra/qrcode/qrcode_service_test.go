package qrcode

import (
	"testing"

	"storefront/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQRCodeService(t *testing.T) {
	tests := []struct {
		name                 string
		size                 int
		errorCorrectionLevel string
	}{
		{"Low error correction", 256, "L"},
		{"Medium error correction", 256, "M"},
		{"High error correction", 256, "Q"},
		{"Highest error correction", 256, "H"},
		{"Default error correction", 256, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewQRCodeService(&config.Config{QRCode: &config.QRCodeConfig{
				Size:                 tt.size,
				ErrorCorrectionLevel: tt.errorCorrectionLevel,
			}})
			assert.NotNil(t, service)
		})
	}
}

func TestQRCodeService_GenerateListingQR(t *testing.T) {
	service := newQRCodeService(256, "M", "https://storefront.sk")

	qrBytes, err := service.GenerateListingQR(uuid.New())
	require.NoError(t, err)
	require.Greater(t, len(qrBytes), 4)

	// PNG magic number
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, qrBytes[:4])
}

func TestQRCodeService_ListingURL(t *testing.T) {
	service := newQRCodeService(256, "M", "https://storefront.sk/")
	listingID := uuid.New()

	assert.Equal(t, "https://storefront.sk/listing/"+listingID.String(), service.ListingURL(listingID))
}

func TestQRCodeService_ParseListingQR(t *testing.T) {
	service := newQRCodeService(256, "M", "https://storefront.sk")
	listingID := uuid.New()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "Generated link", data: service.ListingURL(listingID)},
		{name: "Trailing slash", data: "https://other.host/listing/" + listingID.String() + "/"},
		{name: "Relative link", data: "/listing/" + listingID.String()},
		{name: "Wrong path", data: "https://storefront.sk/profile/" + listingID.String(), wantErr: "invalid QR code link"},
		{name: "Bad id", data: "https://storefront.sk/listing/not-a-uuid", wantErr: "failed to parse listing ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := service.ParseListingQR(tt.data)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, listingID, parsed)
		})
	}
}
