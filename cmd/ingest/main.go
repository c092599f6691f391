// Command ingest loads markdown training resources into the document
// corpus the coach retrieves from: it chunks files on top-level headings,
// embeds each chunk, and inserts the rows with their vectors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/openai"
	"github.com/JacksonLee45/stride-sync-sub000/internal/db"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/repos"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

const embedBatchSize = 32

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dir := flag.String("dir", "data", "directory of markdown files to ingest")
	docType := flag.String("type", "article", "document type recorded for every chunk")
	authors := flag.String("authors", "", "comma-separated author list recorded for every chunk")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	lg, err := logger.New(logMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Sync()

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		lg.Fatal("DATABASE_URL is required for ingestion")
	}
	pg, err := db.NewPostgresService(lg, dsn)
	if err != nil {
		lg.Fatal("init postgres", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		lg.Fatal("postgres automigrate", "error", err)
	}

	embedder, err := openai.NewClient(lg)
	if err != nil {
		lg.Fatal("init openai client", "error", err)
	}
	documentRepo := repos.NewDocumentRepo(pg.DB(), lg)

	var authorList []string
	for _, a := range strings.Split(*authors, ",") {
		if a = strings.TrimSpace(a); a != "" {
			authorList = append(authorList, a)
		}
	}
	authorsJSON, err := json.Marshal(authorList)
	if err != nil {
		lg.Fatal("encode authors", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	chunks, err := collectChunks(*dir)
	if err != nil {
		lg.Fatal("collect markdown chunks", "error", err)
	}
	if len(chunks) == 0 {
		lg.Info("Nothing to ingest", "dir", *dir)
		return
	}
	lg.Info("Ingesting document chunks", "dir", *dir, "chunks", len(chunks))

	inserted := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		inputs := make([]string, len(batch))
		for i, ch := range batch {
			inputs[i] = ch.content
		}
		vectors, err := embedder.Embed(ctx, inputs)
		if err != nil {
			lg.Fatal("embed batch", "start", start, "error", err)
		}

		docs := make([]*types.Document, len(batch))
		for i, ch := range batch {
			docs[i] = &types.Document{
				Title:        ch.title,
				Content:      ch.content,
				DocumentType: *docType,
				Authors:      datatypes.JSON(authorsJSON),
				Embedding:    pgvector.NewVector(vectors[i]),
			}
		}
		if _, err := documentRepo.Create(ctx, nil, docs); err != nil {
			lg.Fatal("insert batch", "start", start, "error", err)
		}
		inserted += len(docs)
	}

	lg.Info("Ingestion complete", "documents", inserted)
}

type chunk struct {
	title   string
	content string
}

// collectChunks splits every markdown file in dir on level-1/2 headings.
// Files without headings become a single chunk titled by filename.
func collectChunks(dir string) ([]chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, splitMarkdown(entry.Name(), string(raw))...)
	}
	return out, nil
}

func splitMarkdown(filename, text string) []chunk {
	defaultTitle := strings.TrimSuffix(filename, filepath.Ext(filename))

	var out []chunk
	current := chunk{title: defaultTitle}
	var body strings.Builder

	flush := func() {
		content := strings.TrimSpace(body.String())
		if content != "" {
			current.content = content
			out = append(out, current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "## ") {
			flush()
			current = chunk{title: strings.TrimSpace(strings.TrimLeft(trimmed, "# "))}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()
	return out
}
