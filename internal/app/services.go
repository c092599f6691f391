package app

import (
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/services"
)

type Services struct {
	Retrieval services.RetrievalService
	Profiles  services.ProfileService
	Coach     services.CoachService
}

func wireServices(log *logger.Logger, clients Clients, reposet Repos) Services {
	retrieval := services.NewRetrievalService(log, clients.OpenAI, clients.EmbedCache, reposet.Documents)
	profiles := services.NewProfileService(log, clients.Anthropic, reposet.Profiles)
	coach := services.NewCoachService(log, retrieval, clients.Anthropic, reposet.Conversations, profiles)

	return Services{
		Retrieval: retrieval,
		Profiles:  profiles,
		Coach:     coach,
	}
}
