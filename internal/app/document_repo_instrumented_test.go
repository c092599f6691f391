package app

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

func TestInstrumentDocumentRepoPassThrough(t *testing.T) {
	inner := &fakeInstrumentedInner{}
	repo := instrumentDocumentRepo(inner)
	if repo == nil {
		t.Fatalf("instrumentDocumentRepo: expected non-nil wrapper")
	}

	_, err := repo.Create(context.Background(), nil, []*types.Document{{Title: "Base Training"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	out, err := repo.SearchSimilar(context.Background(), nil, []float32{1, 2, 3}, 0.65, 3)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(out) != 1 || out[0].Title != "Base Training" {
		t.Fatalf("SearchSimilar results passed through wrong: %+v", out)
	}

	if inner.createCalls != 1 || inner.searchCalls != 1 {
		t.Fatalf("unexpected call counts: create=%d search=%d", inner.createCalls, inner.searchCalls)
	}
}

func TestInstrumentDocumentRepoErrorPassThrough(t *testing.T) {
	want := errors.New("search failed")
	inner := &fakeInstrumentedInner{searchErr: want}
	repo := instrumentDocumentRepo(inner)

	_, err := repo.SearchSimilar(context.Background(), nil, []float32{1}, 0.65, 3)
	if !errors.Is(err, want) {
		t.Fatalf("SearchSimilar: expected wrapped error %v, got=%v", want, err)
	}
}

func TestInstrumentDocumentRepoNilInner(t *testing.T) {
	if repo := instrumentDocumentRepo(nil); repo != nil {
		t.Fatalf("expected nil wrapper for nil inner, got %T", repo)
	}
}

type fakeInstrumentedInner struct {
	createCalls int
	searchCalls int

	searchErr error
}

func (f *fakeInstrumentedInner) Create(_ context.Context, _ *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	f.createCalls++
	return docs, nil
}

func (f *fakeInstrumentedInner) SearchSimilar(_ context.Context, _ *gorm.DB, _ []float32, _ float64, _ int) ([]types.RetrievedDocument, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []types.RetrievedDocument{{Title: "Base Training", Similarity: 0.9}}, nil
}
