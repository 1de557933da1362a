package semantic

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Errors returned by vector index operations.
var (
	ErrIndexNotFound       = errors.New("vector index not found")
	ErrDocumentNotIndexed  = errors.New("document not in vector index")
	ErrUnsupportedVersion  = errors.New("unsupported index version")
	ErrEmptyIndex          = errors.New("vector index is empty")
	ErrNegativeLimit       = errors.New("limit must be >= 0")
	ErrNoDocuments         = errors.New("no documents to index")
	ErrIndexStale          = errors.New("vector index is stale")
	ErrDuplicateDocumentID = errors.New("duplicate document id")
	ErrIncompleteIndex     = errors.New("vector index is incomplete")
	ErrIndexPathInvalid    = errors.New("invalid vector index path")
)

const (
	// IndexFileName is the name of the vector file inside an index directory.
	IndexFileName = "semantic.gob"

	// DocumentsFileName is the name of the document store inside an index directory.
	DocumentsFileName = "documents.db"

	// CurrentIndexVersion is the format version for compatibility checking.
	// Increment this when making breaking changes to the index format.
	CurrentIndexVersion = 1
)

// IndexPath returns the path to the vector file in an index directory.
func IndexPath(dir string) string {
	return filepath.Join(dir, IndexFileName)
}

// DocumentsPath returns the path to the document store in an index directory.
func DocumentsPath(dir string) string {
	return filepath.Join(dir, DocumentsFileName)
}

// NewVectorIndex creates a new empty index. Zero dimensions are taken from the first embedding added.
func NewVectorIndex(modelName string, dimensions int) *VectorIndex {
	return &VectorIndex{
		Version:    CurrentIndexVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now(),
		Embeddings: make(map[string][]float32),
	}
}

// AddEmbedding adds a document embedding to the index.
// DocumentCount is updated to reflect the current number of embeddings.
func (idx *VectorIndex) AddEmbedding(docID string, embedding []float32) error {
	if idx.Dimensions == 0 {
		idx.Dimensions = len(embedding)
	}
	if len(embedding) != idx.Dimensions {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), idx.Dimensions)
	}
	idx.Embeddings[docID] = embedding
	idx.DocumentCount = len(idx.Embeddings)
	return nil
}

// HasDocument checks if a document is in the index.
func (idx *VectorIndex) HasDocument(docID string) bool {
	_, exists := idx.Embeddings[docID]
	return exists
}

// Save persists the index into dir using GOB encoding.
func (idx *VectorIndex) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	indexPath := IndexPath(dir)

	// Write to a temp file first, then rename for atomicity
	tempPath := indexPath + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(idx); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, indexPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Load reads the index from dir.
// Returns ErrUnsupportedVersion if the index was created with an incompatible format.
func Load(dir string) (*VectorIndex, error) {
	f, err := os.Open(IndexPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var idx VectorIndex
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if idx.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'atlas index build --force')",
			ErrUnsupportedVersion, idx.Version, CurrentIndexVersion)
	}

	return &idx, nil
}

// IndexSize returns the combined size of the vector file and document store in bytes.
func IndexSize(dir string) (int64, error) {
	info, err := os.Stat(IndexPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrIndexNotFound
		}
		return 0, err
	}
	size := info.Size()
	if dbInfo, err := os.Stat(DocumentsPath(dir)); err == nil {
		size += dbInfo.Size()
	}
	return size, nil
}

// Exists reports whether the index directory exists. Its existence alone gates building.
func Exists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
