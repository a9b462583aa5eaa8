package entity

import (
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Listing limits
const (
	MinImages = 1
	MaxImages = 3
)

// Listing is a for-sale item record owned by a user.
type Listing struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`       // Owner; the only account allowed to mutate it.
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Location     Location  `json:"location"`
	Images       []string  `json:"images"`       // Ordered public references, 1 to 3.
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName"` // Joined from the category row on reads.
	IsPremium    bool      `json:"isPremium"`
	IsActive     bool      `json:"isActive"`     // Governs public visibility; deletion is separate.
	ViewsCount   int       `json:"viewsCount"`
	TrustTier    TrustTier `json:"trustTier"`    // Snapshot of the owner's tier at creation.
	SellerName   string    `json:"sellerName"`   // Snapshot of the owner's display name.
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Location is where the item can be picked up.
type Location struct {
	City   string `json:"city"`
	Region string `json:"region"` // One of Regions.
}

// Clone returns a copy that shares nothing mutable with the receiver.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	cloned := *l
	cloned.Images = append([]string(nil), l.Images...)

	return &cloned
}

// VisibleTo reports whether the listing may appear in viewer's listing views.
// Inactive listings stay visible to their owner only.
func (l *Listing) VisibleTo(viewerID uuid.UUID) bool {
	return l.IsActive || (viewerID != uuid.Nil && l.UserID == viewerID)
}

// ListingFilter narrows the public catalog. Zero values mean "no constraint".
type ListingFilter struct {
	TextQuery  string `json:"textQuery,omitempty" query:"q"`
	CategoryID string `json:"categoryId,omitempty" query:"category"`
	RegionID   string `json:"regionId,omitempty" query:"region"`
}

// Normalized trims the free-text parts of the filter.
func (f ListingFilter) Normalized() ListingFilter {
	return ListingFilter{
		TextQuery:  strings.TrimSpace(f.TextQuery),
		CategoryID: strings.TrimSpace(f.CategoryID),
		RegionID:   strings.TrimSpace(f.RegionID),
	}
}

// ListingDraft is the user-submitted payload for a new listing.
type ListingDraft struct {
	Title       string `json:"title" form:"title" validate:"required,max=120"`
	Price       string `json:"price" form:"price" validate:"required"` // Accepts a decimal comma.
	CategoryID  string `json:"categoryId" form:"categoryId" validate:"required"`
	Description string `json:"description" form:"description" validate:"max=4000"`
	IsPremium   bool   `json:"isPremium" form:"isPremium"`
	City        string `json:"city" form:"city" validate:"required"`
	Region      string `json:"region" form:"region" validate:"required,region"`
}

// ListingPatch carries a partial update. Nil fields are left unchanged.
type ListingPatch struct {
	Title       *string    `json:"title,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsPremium   *bool      `json:"isPremium,omitempty"`
	City        *string    `json:"city,omitempty"`
	Region      *string    `json:"region,omitempty"`
	Images      []string   `json:"images,omitempty"`
	UpdatedAt   *time.Time `json:"-"`
}

// IsEmpty reports whether the patch changes no user-editable field.
func (p *ListingPatch) IsEmpty() bool {
	return p == nil || (p.Title == nil && p.Price == nil && p.CategoryID == nil &&
		p.Description == nil && p.IsPremium == nil && p.City == nil && p.Region == nil && p.Images == nil)
}

// Apply copies the supplied fields onto l.
func (p *ListingPatch) Apply(l *Listing) {
	if p == nil || l == nil {
		return
	}
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.CategoryID != nil {
		l.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.IsPremium != nil {
		l.IsPremium = *p.IsPremium
	}
	if p.City != nil {
		l.Location.City = *p.City
	}
	if p.Region != nil {
		l.Location.Region = *p.Region
	}
	if p.Images != nil {
		l.Images = append([]string(nil), p.Images...)
	}
	if p.UpdatedAt != nil {
		l.UpdatedAt = *p.UpdatedAt
	}
}

// ImageUpload is one image selected for upload.
type ImageUpload struct {
	Name        string // Original file name; its extension is kept in the object key.
	ContentType string
	Data        []byte
}

// Extension returns the lower-cased file extension without the dot, defaulting to "jpg".
func (u *ImageUpload) Extension() string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Name)), ".")
	if ext == "" {
		return "jpg"
	}

	return ext
}

// ErrInvalidPrice is returned by ParsePrice for malformed or non-positive input.
var ErrInvalidPrice = errors.New("price must be a positive number")

// ParsePrice parses a user-entered price, accepting "," as the decimal separator.
func ParsePrice(raw string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if normalized == "" {
		return 0, ErrInvalidPrice
	}

	price, err := strconv.ParseFloat(normalized, 64)
	if err != nil || price <= 0 {
		return 0, ErrInvalidPrice
	}

	return price, nil
}

// Regions are the region identifiers a listing location may use.
var Regions = []string{"ba", "tt", "tn", "nr", "za", "bb", "po", "ke"}

// IsKnownRegion reports whether id is one of Regions.
func IsKnownRegion(id string) bool {
	return slices.Contains(Regions, id)
}
