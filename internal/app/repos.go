package app

import (
	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/repos"
)

type Repos struct {
	Conversations repos.CoachConversationRepo
	Profiles      repos.AthleteProfileRepo
	Documents     repos.DocumentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Conversations: repos.NewCoachConversationRepo(db, log),
		Profiles:      repos.NewAthleteProfileRepo(db, log),
		Documents:     instrumentDocumentRepo(repos.NewDocumentRepo(db, log)),
	}
}
