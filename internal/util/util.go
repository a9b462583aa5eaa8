package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListingImageKey builds the object key of a listing image: <user>/<unix-ms>_<random>.<ext>.
func ListingImageKey(userID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s.%s", userID, now.UnixMilli(), RandomToken(4), ext)
}

// AvatarKey builds the object key of a profile avatar: <user>/avatar_<unix-ms>.<ext>.
func AvatarKey(userID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("%s/avatar_%d.%s", userID, now.UnixMilli(), ext)
}

// RandomToken returns 2*n lowercase hex characters.
func RandomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(uuid.NewString()))[:2*n]
	}

	return hex.EncodeToString(buf)
}

// FormatBytes formats bytes into human readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	const units = "KMGTPEZY"
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), units[exp])
}
