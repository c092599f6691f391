package services

import (
	"context"
	"strings"

	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/openai"
	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/redis"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/repos"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

const (
	// DefaultMatchThreshold is the minimum cosine similarity a document must
	// meet to be used as context.
	DefaultMatchThreshold = 0.65
	// DefaultMatchCount caps how many documents ground one query.
	DefaultMatchCount = 3
)

// RetrievalService performs best-effort semantic retrieval. A failure at
// any step (embedding, cache, store) yields an empty result, never an
// error: retrieval enriches the conversation but is not a dependency of it.
type RetrievalService interface {
	Retrieve(ctx context.Context, query string) []types.RetrievedDocument
}

type retrievalService struct {
	log       *logger.Logger
	embedder  openai.Client
	cache     redis.EmbedCache
	documents repos.DocumentRepo
	threshold float64
	count     int
}

func NewRetrievalService(baseLog *logger.Logger, embedder openai.Client, cache redis.EmbedCache, documents repos.DocumentRepo) RetrievalService {
	return &retrievalService{
		log:       baseLog.With("service", "RetrievalService"),
		embedder:  embedder,
		cache:     cache,
		documents: documents,
		threshold: DefaultMatchThreshold,
		count:     DefaultMatchCount,
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, query string) []types.RetrievedDocument {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.RetrievedDocument{}
	}

	embedding := s.embedQuery(ctx, query)
	if len(embedding) == 0 {
		return []types.RetrievedDocument{}
	}

	matches, err := s.documents.SearchSimilar(ctx, nil, embedding, s.threshold, s.count)
	if err != nil {
		s.log.Warn("Similarity search failed; continuing without context", "error", err)
		return []types.RetrievedDocument{}
	}

	// The store already applies the threshold; re-check here so a store that
	// returns weaker matches can never leak them into the prompt.
	out := make([]types.RetrievedDocument, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= s.threshold {
			out = append(out, m)
		}
	}
	return out
}

func (s *retrievalService) embedQuery(ctx context.Context, query string) []float32 {
	if s.cache != nil {
		if vec, ok := s.cache.Get(ctx, query); ok {
			return vec
		}
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		s.log.Warn("Query embedding failed; continuing without context", "error", err)
		return nil
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, query, vecs[0])
	}
	return vecs[0]
}
