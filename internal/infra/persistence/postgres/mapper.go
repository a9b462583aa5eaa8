package postgres

import (
	"storefront/internal/domain/entity"
	"storefront/internal/infra/persistence/model"
)

func toListingDomain(m *model.ListingModel) *entity.Listing {
	listing := &entity.Listing{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Price:       m.Price,
		Currency:    m.Currency,
		Location:    entity.Location{City: m.City, Region: m.Region},
		Images:      append([]string(nil), m.Images...),
		CategoryID:  m.CategoryID,
		IsPremium:   m.IsPremium,
		IsActive:    m.IsActive,
		ViewsCount:  m.ViewsCount,
		TrustTier:   entity.TrustTierFromString(m.TrustTier),
		SellerName:  m.SellerName,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Category != nil {
		listing.CategoryName = m.Category.Name
	}

	return listing
}

func fromListingDomain(l *entity.Listing) *model.ListingModel {
	return &model.ListingModel{
		ID:          l.ID,
		UserID:      l.UserID,
		Title:       l.Title,
		Price:       l.Price,
		Currency:    l.Currency,
		City:        l.Location.City,
		Region:      l.Location.Region,
		Images:      append([]string(nil), l.Images...),
		CategoryID:  l.CategoryID,
		IsPremium:   l.IsPremium,
		IsActive:    l.IsActive,
		ViewsCount:  l.ViewsCount,
		TrustTier:   string(l.TrustTier),
		SellerName:  l.SellerName,
		Description: l.Description,
	}
}

// listingPatchColumns maps the supplied patch fields to column updates.
func listingPatchColumns(p *entity.ListingPatch) map[string]any {
	columns := make(map[string]any)
	if p.Title != nil {
		columns["title"] = *p.Title
	}
	if p.Price != nil {
		columns["price"] = *p.Price
	}
	if p.CategoryID != nil {
		columns["category_id"] = *p.CategoryID
	}
	if p.Description != nil {
		columns["description"] = *p.Description
	}
	if p.IsPremium != nil {
		columns["is_premium"] = *p.IsPremium
	}
	if p.City != nil {
		columns["city"] = *p.City
	}
	if p.Region != nil {
		columns["region"] = *p.Region
	}
	if p.Images != nil {
		columns["images"] = p.Images
	}
	if p.UpdatedAt != nil {
		columns["updated_at"] = *p.UpdatedAt
	}

	return columns
}

func toProfileDomain(m *model.ProfileModel) *entity.User {
	return &entity.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		AvatarURL: m.AvatarURL,
		TrustTier: entity.TrustTierFromString(m.TrustTier),
		Role:      entity.RoleFromString(m.Role),
		IsBanned:  m.IsBanned,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toCredentialDomain(m *model.CredentialModel) *entity.Credential {
	return &entity.Credential{
		UserID:       m.UserID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
	}
}

func toConversationDomain(m *model.ConversationModel) *entity.Conversation {
	return &entity.Conversation{
		ID:        m.ID,
		ListingID: m.ListingID,
		BuyerID:   m.BuyerID,
		SellerID:  m.SellerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMessageDomain(m *model.MessageModel) *entity.Message {
	return &entity.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		IsRead:         m.IsRead,
	}
}

func toReviewDomain(m *model.ReviewModel) *entity.Review {
	review := &entity.Review{
		ID:         m.ID,
		ReviewerID: m.ReviewerID,
		RevieweeID: m.RevieweeID,
		Rating:     m.Rating,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt,
	}
	if m.Reviewer != nil {
		review.ReviewerName = m.Reviewer.Name
	}

	return review
}
