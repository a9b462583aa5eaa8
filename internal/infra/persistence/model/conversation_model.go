package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationModel mirrors the 'conversations' table. (listing, buyer, seller) is unique.
type ConversationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_key"`
	BuyerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_key"`
	SellerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_key"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (ConversationModel) TableName() string {
	return "conversations"
}

// MessageModel mirrors the 'messages' table.
type MessageModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index"`
	IsRead         bool      `gorm:"not null;default:false"`
}

// TableName explicitly sets the table name for GORM.
func (MessageModel) TableName() string {
	return "messages"
}

// ReviewModel mirrors the 'reviews' table.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null"`
	RevieweeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time

	Reviewer *ProfileModel `gorm:"foreignKey:ReviewerID"`
}

// TableName explicitly sets the table name for GORM.
func (ReviewModel) TableName() string {
	return "reviews"
}
