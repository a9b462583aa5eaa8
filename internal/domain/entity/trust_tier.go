package entity

import (
	"strings"

	"github.com/pkg/errors"
)

// TrustTier is a graded indicator of identity-verification strength.
type TrustTier string

const (
	TrustTierNone      TrustTier = "NONE"
	TrustTierPhone     TrustTier = "PHONE"
	TrustTierBankID    TrustTier = "BANK_ID"
	TrustTierConcierge TrustTier = "CONCIERGE"
)

// ErrUnknownTrustTier is returned by ParseTrustTier for values outside the closed set.
var ErrUnknownTrustTier = errors.New("unknown trust tier")

// TrustTiers lists every tier from weakest to strongest.
func TrustTiers() []TrustTier {
	return []TrustTier{TrustTierNone, TrustTierPhone, TrustTierBankID, TrustTierConcierge}
}

// ParseTrustTier decodes a tier name case-insensitively.
func ParseTrustTier(s string) (TrustTier, error) {
	tier := TrustTier(strings.ToUpper(strings.TrimSpace(s)))
	if !tier.IsValid() {
		return TrustTierNone, errors.Wrapf(ErrUnknownTrustTier, "%q", s)
	}

	return tier, nil
}

// TrustTierFromString decodes a stored tier, falling back to TrustTierNone.
func TrustTierFromString(s string) TrustTier {
	tier, err := ParseTrustTier(s)
	if err != nil {
		return TrustTierNone
	}

	return tier
}

// IsValid checks if the TrustTier is a valid value.
func (t TrustTier) IsValid() bool {
	switch t {
	case TrustTierNone, TrustTierPhone, TrustTierBankID, TrustTierConcierge:
		return true
	default:
		return false
	}
}

// Level orders tiers; unknown tiers rank below NONE.
func (t TrustTier) Level() int {
	switch t {
	case TrustTierNone:
		return 0
	case TrustTierPhone:
		return 1
	case TrustTierBankID:
		return 2
	case TrustTierConcierge:
		return 3
	default:
		return -1
	}
}

// IsVerified reports whether any verification beyond NONE was asserted.
func (t TrustTier) IsVerified() bool {
	return t.Level() > 0
}

func (t TrustTier) String() string {
	return string(t)
}
