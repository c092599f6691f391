package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type CoachConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.CoachConversation) (*types.CoachConversation, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.CoachConversation, error)
}

type coachConversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCoachConversationRepo(db *gorm.DB, baseLog *logger.Logger) CoachConversationRepo {
	return &coachConversationRepo{db: db, log: baseLog.With("repo", "CoachConversationRepo")}
}

func (r *coachConversationRepo) Create(ctx context.Context, tx *gorm.DB, record *types.CoachConversation) (*types.CoachConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *coachConversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.CoachConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CoachConversation
	if userID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
