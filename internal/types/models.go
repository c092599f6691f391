package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// CoachConversation is one completed coach exchange: the full message
// history plus what came out of it. Rows are append-only.
type CoachConversation struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Messages        datatypes.JSON `gorm:"type:jsonb;not null;column:messages" json:"messages"`
	PlanGenerated   bool           `gorm:"not null;default:false;column:plan_generated" json:"plan_generated"`
	WorkoutsCreated int            `gorm:"not null;default:0;column:workouts_created" json:"workouts_created"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (CoachConversation) TableName() string {
	return "coach_conversation"
}

// AthleteProfile is the per-user training profile distilled from coach
// conversations. One row per user, upserted.
type AthleteProfile struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"user_id"`
	ExperienceLevel string    `gorm:"column:experience_level" json:"experience_level"`
	WeeklyMileage   string    `gorm:"column:weekly_mileage" json:"weekly_mileage"`
	PaceInfo        string    `gorm:"column:pace_info" json:"pace_info"`
	InjuryHistory   string    `gorm:"column:injury_history" json:"injury_history"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AthleteProfile) TableName() string {
	return "athlete_profile"
}

// Document is one entry of the retrieval corpus. Authors is a JSON array of
// strings; Embedding is the pgvector column the similarity search runs over.
type Document struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title        string          `gorm:"not null;column:title" json:"title"`
	Content      string          `gorm:"not null;column:content" json:"content"`
	DocumentType string          `gorm:"column:document_type" json:"document_type"`
	Authors      datatypes.JSON  `gorm:"type:jsonb;column:authors" json:"authors"`
	Embedding    pgvector.Vector `gorm:"type:vector(1536);column:embedding" json:"-"`
	CreatedAt    time.Time       `gorm:"not null;default:now()" json:"created_at"`
}

func (Document) TableName() string {
	return "document"
}
