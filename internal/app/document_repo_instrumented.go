package app

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/observability"
	"github.com/JacksonLee45/stride-sync-sub000/internal/repos"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type instrumentedDocumentRepo struct {
	inner   repos.DocumentRepo
	metrics *observability.Metrics
}

func instrumentDocumentRepo(inner repos.DocumentRepo) repos.DocumentRepo {
	if inner == nil {
		return nil
	}
	return &instrumentedDocumentRepo{
		inner:   inner,
		metrics: observability.Current(),
	}
}

func (r *instrumentedDocumentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	start := time.Now()
	out, err := r.inner.Create(ctx, tx, docs)
	r.observe("create", err, time.Since(start))
	return out, err
}

func (r *instrumentedDocumentRepo) SearchSimilar(ctx context.Context, tx *gorm.DB, query []float32, threshold float64, limit int) ([]types.RetrievedDocument, error) {
	start := time.Now()
	out, err := r.inner.SearchSimilar(ctx, tx, query, threshold, limit)
	r.observe("search_similar", err, time.Since(start))
	return out, err
}

func (r *instrumentedDocumentRepo) observe(operation string, err error, dur time.Duration) {
	if r == nil || r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.ObserveDocumentStoreOperation(operation, status, dur)
}
