package vectorstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

// Store is the persistent nearest-neighbor index for regulation chunks,
// backed by a Badger database at a configured path. The store is
// create-if-absent, open-if-present and survives process restarts.
// Reads are safe for concurrent use; ingestion-time Add calls are expected
// to be serialized by the caller.
type Store struct {
	db         *badger.DB
	path       string
	collection string
	dimensions int
	counter    atomic.Int64
	logger     *zap.Logger
}

// Config holds vector store settings.
type Config struct {
	Path       string
	Collection string
	Dimensions int
	Logger     *zap.Logger
}

// Open opens (or creates) the vector store at the configured path.
func Open(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vector store directory: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil // zap is the only logger in this process

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vector store at %s: %w", cfg.Path, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		db:         db,
		path:       cfg.Path,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

// Close closes the underlying database. Subsequent calls fail with
// ErrNotInitialized.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close vector store: %w", err)
	}
	return nil
}

// Dimension returns the configured embedding width of this collection.
func (s *Store) Dimension() int { return s.dimensions }

func (s *Store) prefix() []byte {
	return []byte("chunk:" + s.collection + ":")
}

func (s *Store) key(id string) []byte {
	return append(s.prefix(), id...)
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return domain.ErrNotInitialized
	}
	return nil
}

// AddBatch stores parallel slices of texts, embeddings and metadata.
// Shapes must line up (ErrShapeMismatch otherwise). Missing IDs are
// auto-generated from a session counter; supplied IDs upsert, so
// re-ingesting a document overwrites its previous chunks.
func (s *Store) AddBatch(
	ctx context.Context,
	texts []string, embeddings [][]float32,
	metadatas []domain.ChunkMetadata, ids []string,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(texts) != len(embeddings) {
		return fmt.Errorf("%w: %d texts vs %d embeddings", domain.ErrShapeMismatch, len(texts), len(embeddings))
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return fmt.Errorf("%w: %d texts vs %d metadatas", domain.ErrShapeMismatch, len(texts), len(metadatas))
	}
	if ids != nil && len(ids) != len(texts) {
		return fmt.Errorf("%w: %d texts vs %d ids", domain.ErrShapeMismatch, len(texts), len(ids))
	}

	chunks := make([]domain.RegulationChunk, len(texts))
	for i := range texts {
		chunk := domain.RegulationChunk{Text: texts[i], Embedding: embeddings[i]}
		if metadatas != nil {
			chunk.Metadata = metadatas[i]
		}
		if ids != nil && ids[i] != "" {
			chunk.ID = ids[i]
		} else {
			chunk.ID = "doc_" + strconv.FormatInt(s.counter.Add(1), 10)
		}
		chunks[i] = chunk
	}

	return s.Add(ctx, chunks)
}

// Add upserts fully-formed chunks. Every embedding must match the
// collection's configured dimension.
func (s *Store) Add(ctx context.Context, chunks []domain.RegulationChunk) error {
	if err := s.ready(); err != nil {
		return err
	}

	for _, chunk := range chunks {
		if chunk.Text == "" {
			return fmt.Errorf("%w: chunk %s has empty text", domain.ErrInvalidInput, chunk.ID)
		}
		if len(chunk.Embedding) != s.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dims, collection expects %d",
				domain.ErrVectorDimMismatch, chunk.ID, len(chunk.Embedding), s.dimensions)
		}
	}

	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for _, chunk := range chunks {
		data, err := encodeRecord(chunk)
		if err != nil {
			return err
		}
		if err := batch.Set(s.key(chunk.ID), data); err != nil {
			return fmt.Errorf("batch set %s: %w", chunk.ID, err)
		}
	}

	if err := batch.Flush(); err != nil {
		return fmt.Errorf("flush chunk batch: %w", err)
	}

	s.logger.Debug("chunks stored",
		zap.Int("count", len(chunks)),
		zap.String("collection", s.collection),
	)
	return nil
}

// Query returns up to k chunks ranked by ascending cosine distance.
// An optional metadata filter restricts candidates before ranking.
func (s *Store) Query(
	ctx context.Context, embedding []float32, k int, filter domain.MetadataFilter,
) ([]domain.QueryHit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dims, collection expects %d",
			domain.ErrVectorDimMismatch, len(embedding), s.dimensions)
	}

	var hits []domain.QueryHit
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("query canceled: %w", err)
			}
			item := it.Item()
			id := string(bytes.TrimPrefix(item.Key(), s.prefix()))
			err := item.Value(func(val []byte) error {
				chunk, err := decodeRecord(id, val)
				if err != nil {
					return err
				}
				if filter != nil && !filter.Matches(chunk.Metadata) {
					return nil
				}
				hits = append(hits, domain.QueryHit{
					ID:       chunk.ID,
					Text:     chunk.Text,
					Distance: cosineDistance(embedding, chunk.Embedding),
					Metadata: chunk.Metadata,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", s.collection, err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of chunks currently stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix()
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", s.collection, err)
	}
	return count, nil
}

// DeleteAll irreversibly empties the collection. The store stays open and
// is usable immediately after.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.db.DropPrefix(s.prefix()); err != nil {
		return fmt.Errorf("drop collection %s: %w", s.collection, err)
	}
	s.logger.Info("collection emptied", zap.String("collection", s.collection))
	return nil
}

// GetByIDs returns the chunks found for the given IDs. Missing IDs are
// simply absent from the result, not an error.
func (s *Store) GetByIDs(ctx context.Context, ids []string) (map[string]domain.RegulationChunk, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	found := make(map[string]domain.RegulationChunk, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(s.key(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return fmt.Errorf("get chunk %s: %w", id, err)
			}
			err = item.Value(func(val []byte) error {
				chunk, err := decodeRecord(id, val)
				if err != nil {
					return err
				}
				found[id] = chunk
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
