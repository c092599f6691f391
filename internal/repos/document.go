package repos

import (
	"context"
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error)
	// SearchSimilar returns documents whose cosine similarity to the query
	// embedding meets the threshold, most similar first.
	SearchSimilar(ctx context.Context, tx *gorm.DB, query []float32, threshold float64, limit int) ([]types.RetrievedDocument, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(docs) == 0 {
		return []*types.Document{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

type similarDocumentRow struct {
	Title        string         `gorm:"column:title"`
	Content      string         `gorm:"column:content"`
	DocumentType string         `gorm:"column:document_type"`
	Authors      datatypes.JSON `gorm:"column:authors"`
	Similarity   float64        `gorm:"column:similarity"`
}

func (r *documentRepo) SearchSimilar(ctx context.Context, tx *gorm.DB, query []float32, threshold float64, limit int) ([]types.RetrievedDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(query) == 0 {
		return []types.RetrievedDocument{}, nil
	}
	if limit <= 0 {
		limit = 3
	}

	vec := pgvector.NewVector(query)
	var rows []similarDocumentRow
	if err := transaction.WithContext(ctx).Raw(`
		SELECT title, content, document_type, authors,
		       1 - (embedding <=> ?) AS similarity
		FROM document
		WHERE 1 - (embedding <=> ?) >= ?
		ORDER BY embedding <=> ?
		LIMIT ?`,
		vec, vec, threshold, vec, limit,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.RetrievedDocument, 0, len(rows))
	for _, row := range rows {
		var authors []string
		if len(row.Authors) > 0 {
			if err := json.Unmarshal(row.Authors, &authors); err != nil {
				r.log.Warn("Skipping malformed authors column", "title", row.Title, "error", err)
				authors = nil
			}
		}
		out = append(out, types.RetrievedDocument{
			Title:        row.Title,
			Content:      row.Content,
			DocumentType: row.DocumentType,
			Authors:      authors,
			Similarity:   row.Similarity,
		})
	}
	return out, nil
}
