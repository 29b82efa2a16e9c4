package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

// Service ingests regulation documents into the vector index: extract,
// chunk, batch-embed, store. Ingestion is an offline batch job; callers
// are expected to run one ingestion at a time.
type Service struct {
	embedder         Embedder
	index            Index
	chunkSizeWords   int
	overlapSentences int
	logger           *zap.Logger
}

// New creates an ingestion service.
func New(embedder Embedder, index Index, chunkSizeWords, overlapSentences int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder:         embedder,
		index:            index,
		chunkSizeWords:   chunkSizeWords,
		overlapSentences: overlapSentences,
		logger:           logger,
	}
}

// DocumentOptions carries optional provenance overrides for one document.
type DocumentOptions struct {
	RegulationName string
	Department     string
	ClauseID       string
}

// Stats summarizes one directory ingestion run.
type Stats struct {
	TotalFiles  int `json:"total_files"`
	Successful  int `json:"successful"`
	Failed      int `json:"failed"`
	TotalChunks int `json:"total_chunks"`
}

// IngestDocument ingests a single document and returns the number of
// chunks stored. A document that extracts to no text is not an error;
// it simply contributes zero chunks.
func (s *Service) IngestDocument(ctx context.Context, path string, opts DocumentOptions) (int, error) {
	text, err := ExtractText(path)
	if err != nil {
		return 0, err
	}
	if text == "" {
		s.logger.Warn("no text extracted", zap.String("path", path))
		return 0, nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	regulationName := opts.RegulationName
	if regulationName == "" {
		regulationName = stem
	}
	department := opts.Department
	if department == "" {
		department = "General"
	}
	clauseID := opts.ClauseID
	if clauseID == "" {
		clauseID = "N/A"
	}

	baseMeta := domain.ChunkMetadata{
		RegulationName: regulationName,
		SourceFile:     filepath.Base(path),
		Department:     department,
		ClauseID:       clauseID,
	}

	chunks := ChunkText(text, baseMeta, s.chunkSizeWords, s.overlapSentences)
	if len(chunks) == 0 {
		s.logger.Warn("no chunks created", zap.String("path", path))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	metadatas := make([]domain.ChunkMetadata, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		metadatas[i] = chunk.Metadata
		ids[i] = fmt.Sprintf("%s_chunk_%d", stem, i)
	}

	result, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks for %s: %w", path, err)
	}

	if err := s.index.AddBatch(ctx, texts, result.Embeddings, metadatas, ids); err != nil {
		return 0, fmt.Errorf("store chunks for %s: %w", path, err)
	}

	s.logger.Info("document ingested",
		zap.String("path", path),
		zap.Int("chunks", len(chunks)),
		zap.String("department", department),
	)
	return len(chunks), nil
}

// IngestDirectory recursively ingests every supported document under root.
// A failure on one file is counted and logged, never aborts the run.
// The department is inferred from the path segment directly after a
// literal "regulations" directory component, when present.
func (s *Service) IngestDirectory(ctx context.Context, root string) (Stats, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSupportedFormat(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("scan %s: %w", root, err)
	}

	stats := Stats{TotalFiles: len(files)}
	if len(files) == 0 {
		s.logger.Warn("no supported documents found", zap.String("root", root))
		return stats, nil
	}

	for _, path := range files {
		chunks, err := s.IngestDocument(ctx, path, DocumentOptions{
			Department: departmentFromPath(path),
		})
		if err != nil {
			s.logger.Error("document ingestion failed",
				zap.String("path", path),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		stats.Successful++
		stats.TotalChunks += chunks
	}

	s.logger.Info("directory ingestion complete",
		zap.String("root", root),
		zap.Int("total_files", stats.TotalFiles),
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
		zap.Int("total_chunks", stats.TotalChunks),
	)
	return stats, nil
}

// departmentFromPath returns the path segment after a "regulations"
// directory component, or "" when there is none.
func departmentFromPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part == "regulations" && i+2 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
