package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type AthleteProfileRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, profile *types.AthleteProfile) (*types.AthleteProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AthleteProfile, error)
}

type athleteProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAthleteProfileRepo(db *gorm.DB, baseLog *logger.Logger) AthleteProfileRepo {
	return &athleteProfileRepo{db: db, log: baseLog.With("repo", "AthleteProfileRepo")}
}

func (r *athleteProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.AthleteProfile) (*types.AthleteProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	profile.UpdatedAt = time.Now().UTC()
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"experience_level", "weekly_mileage", "pace_info", "injury_history", "updated_at",
			}),
		}).
		Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *athleteProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AthleteProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, nil
	}

	var result types.AthleteProfile
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
