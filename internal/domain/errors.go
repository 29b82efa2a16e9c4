package domain

import "errors"

var (
	// ErrInvalidInput signals caller-supplied data failing a precondition.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelUnavailable signals an unusable embedding model or endpoint.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrNotInitialized signals use of a closed or unopened vector index.
	ErrNotInitialized = errors.New("vector index not initialized")
	// ErrShapeMismatch signals mismatched batch lengths on index insertion.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrUnsupportedFormat signals a document format outside pdf/docx/txt.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtraction signals a parser failure while extracting document text.
	ErrExtraction = errors.New("text extraction failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSchemaViolation signals an LLM reply that parses but fails the schema.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrTierFailed signals a failed LLM tier attempt (transport or schema).
	ErrTierFailed = errors.New("llm tier failed")
)
