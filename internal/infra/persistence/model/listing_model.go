package model

import (
	"time"

	"github.com/google/uuid"
)

// ListingModel mirrors the 'listings' table.
type ListingModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Title       string    `gorm:"type:varchar(120);not null"`
	Price       float64   `gorm:"type:numeric(12,2);not null"`
	Currency    string    `gorm:"type:varchar(8);not null"`
	City        string    `gorm:"type:varchar(100)"`
	Region      string    `gorm:"type:varchar(8);index"`
	Images      []string  `gorm:"type:jsonb;serializer:json"`
	CategoryID  string    `gorm:"type:varchar(32);index"`
	IsPremium   bool      `gorm:"not null;default:false"`
	IsActive    bool      `gorm:"not null;default:true;index"`
	ViewsCount  int       `gorm:"not null;default:0"`
	TrustTier   string    `gorm:"type:varchar(20)"`
	SellerName  string    `gorm:"type:varchar(100)"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	Category *CategoryModel `gorm:"foreignKey:CategoryID"`
}

// TableName explicitly sets the table name for GORM.
func (ListingModel) TableName() string {
	return "listings"
}

// CategoryModel mirrors the 'categories' reference table.
type CategoryModel struct {
	ID   string `gorm:"type:varchar(32);primaryKey"`
	Name string `gorm:"type:varchar(100);not null"`
	Icon string `gorm:"type:varchar(50)"`
}

// TableName explicitly sets the table name for GORM.
func (CategoryModel) TableName() string {
	return "categories"
}

// FavoriteModel mirrors the 'favorites' table, unique per (user, listing).
type FavoriteModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (FavoriteModel) TableName() string {
	return "favorites"
}
