package postgres

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// conversationRepository implements the domain.ConversationRepository interface using GORM.
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository is the constructor for conversationRepository.
func NewConversationRepository(db *gorm.DB) repository.ConversationRepository {
	return &conversationRepository{db: db}
}

func (repo *conversationRepository) FindByKey(ctx context.Context, key entity.ConversationKey) (*entity.Conversation, error) {
	var row model.ConversationModel
	err := repo.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ? AND seller_id = ?", key.ListingID, key.BuyerID, key.SellerID).
		First(&row).Error

	return repo.one(&row, err)
}

func (repo *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var row model.ConversationModel
	err := repo.db.WithContext(ctx).Where("id = ?", id).First(&row).Error

	return repo.one(&row, err)
}

func (repo *conversationRepository) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	var rows []*model.ConversationModel
	err := repo.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query conversations")
	}

	conversations := make([]*entity.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, toConversationDomain(row))
	}

	return conversations, nil
}

// Create inserts the conversation; the unique key turns a concurrent duplicate into ErrDuplicateConversation.
func (repo *conversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	row := &model.ConversationModel{
		ID:        conversation.ID,
		ListingID: conversation.ListingID,
		BuyerID:   conversation.BuyerID,
		SellerID:  conversation.SellerID,
	}

	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		return gatewayError(err, "failed to create conversation", violations{
			violationUnique:     repository.ErrDuplicateConversation,
			violationForeignKey: repository.ErrListingNotFound,
		})
	}

	conversation.ID = row.ID
	conversation.CreatedAt = row.CreatedAt
	conversation.UpdatedAt = row.UpdatedAt

	return nil
}

func (repo *conversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := repo.db.WithContext(ctx).Model(&model.ConversationModel{}).
		Where("id = ? AND updated_at < ?", id, at).
		UpdateColumn("updated_at", at)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to touch conversation")
	}

	return nil
}

func (repo *conversationRepository) one(row *model.ConversationModel, err error) (*entity.Conversation, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConversationNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find conversation")
	}

	return toConversationDomain(row), nil
}

// messageRepository implements the domain.MessageRepository interface using GORM.
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository is the constructor for messageRepository.
func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error) {
	var rows []*model.MessageModel
	err := repo.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query messages")
	}

	messages := make([]*entity.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, toMessageDomain(row))
	}

	return messages, nil
}

// Create inserts the message and bumps its conversation in one transaction.
func (repo *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	row := &model.MessageModel{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
	}

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		return tx.Model(&model.ConversationModel{}).
			Where("id = ?", row.ConversationID).
			UpdateColumn("updated_at", row.CreatedAt).Error
	})
	if err != nil {
		return gatewayError(err, "failed to create message", violations{
			violationForeignKey: repository.ErrConversationNotFound,
		})
	}

	message.ID = row.ID
	message.CreatedAt = row.CreatedAt
	message.IsRead = row.IsRead

	return nil
}

func (repo *messageRepository) MarkConversationRead(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).Model(&model.MessageModel{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewerID, false).
		Where("conversation_id IN (?)", participantConversations(repo.db, viewerID)).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to mark conversation read")
	}

	return result.RowsAffected, nil
}

func (repo *messageRepository) MarkRead(ctx context.Context, messageID, viewerID uuid.UUID) error {
	result := repo.db.WithContext(ctx).Model(&model.MessageModel{}).
		Where("id = ? AND sender_id <> ?", messageID, viewerID).
		Where("conversation_id IN (?)", participantConversations(repo.db, viewerID)).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to mark message read")
	}

	return nil
}

func (repo *messageRepository) CountUnread(ctx context.Context, viewerID uuid.UUID) (int, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&model.MessageModel{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.buyer_id = ? OR conversations.seller_id = ?)", viewerID, viewerID).
		Where("messages.sender_id <> ? AND messages.is_read = ?", viewerID, false).
		Count(&count).Error
	if err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to count unread messages")
	}

	return int(count), nil
}

// participantConversations selects the ids of the conversations userID takes part in.
func participantConversations(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Model(&model.ConversationModel{}).
		Select("id").
		Where("buyer_id = ? OR seller_id = ?", userID, userID)
}
