package app

import (
	"fmt"

	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/anthropic"
	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/openai"
	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/redis"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
)

type Clients struct {
	OpenAI     openai.Client
	Anthropic  anthropic.Client
	EmbedCache redis.EmbedCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	anthropicClient, err := anthropic.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init anthropic client: %w", err)
	}

	var cache redis.EmbedCache
	if cfg.RedisEnabled {
		cache, err = redis.NewEmbedCache(log)
		if err != nil {
			// The cache is an optimization; a dead redis must not keep the
			// service from starting.
			log.Warn("Embed cache unavailable; continuing without it", "error", err)
			cache = nil
		}
	}

	return Clients{
		OpenAI:     openaiClient,
		Anthropic:  anthropicClient,
		EmbedCache: cache,
	}, nil
}
