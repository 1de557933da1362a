package semantic

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/researchatlas/atlas/internal/document"
	"github.com/researchatlas/atlas/internal/storage"
)

func (m Manifest) values() map[string]string {
	return map[string]string{
		storage.MetaModel:      m.Model,
		storage.MetaDimensions: strconv.Itoa(m.Dimensions),
		storage.MetaSourceHash: m.SourceHash,
		storage.MetaBuildID:    m.BuildID,
		storage.MetaCreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
		storage.MetaDocCount:   strconv.Itoa(m.DocumentCount),
	}
}

func parseManifest(meta map[string]string) (*Manifest, error) {
	m := &Manifest{
		Model:      meta[storage.MetaModel],
		SourceHash: meta[storage.MetaSourceHash],
		BuildID:    meta[storage.MetaBuildID],
	}
	if m.SourceHash == "" {
		return nil, fmt.Errorf("manifest has no %s", storage.MetaSourceHash)
	}

	var err error
	if v := meta[storage.MetaDimensions]; v != "" {
		if m.Dimensions, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", storage.MetaDimensions, err)
		}
	}
	if v := meta[storage.MetaDocCount]; v != "" {
		if m.DocumentCount, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", storage.MetaDocCount, err)
		}
	}
	if v := meta[storage.MetaCreatedAt]; v != "" {
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", storage.MetaCreatedAt, err)
		}
	}
	return m, nil
}

// openDocuments opens the document store of an existing index without creating one.
func openDocuments(dir string) (*storage.DB, error) {
	if _, err := os.Stat(DocumentsPath(dir)); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, err
	}
	return storage.OpenDB(DocumentsPath(dir))
}

// ReadManifest reads the build metadata of the index in dir.
func ReadManifest(dir string) (*Manifest, error) {
	db, err := openDocuments(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return readManifest(db)
}

// readManifest parses the stored metadata and checks that the document
// table holds as many rows as the manifest records.
func readManifest(db *storage.DB) (*Manifest, error) {
	meta, err := db.AllMeta()
	if err != nil {
		return nil, err
	}
	m, err := parseManifest(meta)
	if err != nil {
		return nil, err
	}
	count, err := db.CountDocuments()
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	if count != m.DocumentCount {
		return nil, fmt.Errorf("%w: document store holds %d of %d documents", ErrIncompleteIndex, count, m.DocumentCount)
	}
	return m, nil
}

// Store is an opened index: vectors in memory, documents in SQLite.
type Store struct {
	dir      string
	index    *VectorIndex
	db       *storage.DB
	manifest Manifest
}

// OpenStore opens the index in dir for retrieval.
// Returns ErrIndexNotFound if dir holds no complete index.
func OpenStore(dir string) (*Store, error) {
	if !Exists(dir) {
		return nil, ErrIndexNotFound
	}

	idx, err := Load(dir)
	if err != nil {
		return nil, err
	}

	db, err := openDocuments(dir)
	if err != nil {
		return nil, err
	}

	manifest, err := readManifest(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return &Store{dir: dir, index: idx, db: db, manifest: *manifest}, nil
}

// Close closes the document store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the index directory.
func (s *Store) Dir() string {
	return s.dir
}

// Manifest returns the build metadata.
func (s *Store) Manifest() Manifest {
	return s.manifest
}

// Index returns the loaded vectors.
func (s *Store) Index() *VectorIndex {
	return s.index
}

// Search returns the k documents most similar to the query vector, most similar first, with Score set.
func (s *Store) Search(query []float32, k int) ([]document.Document, error) {
	results, err := s.index.Search(query, k, float32(math.Inf(-1)))
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.DocumentID
	}
	byID, err := s.db.GetDocuments(ids)
	if err != nil {
		return nil, err
	}

	docs := make([]document.Document, 0, len(results))
	for _, r := range results {
		doc, ok := byID[r.DocumentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s has a vector but no stored text", ErrDocumentNotIndexed, r.DocumentID)
		}
		doc.Score = r.Similarity
		docs = append(docs, doc)
	}
	return docs, nil
}

// Status describes an index directory relative to a set of documents.
type Status struct {
	Dir         string    `json:"dir"`
	Exists      bool      `json:"exists"`
	Manifest    *Manifest `json:"manifest,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	Stale       bool      `json:"stale"`
	StaleReason string    `json:"stale_reason,omitempty"`
}

// Inspect reports whether the index in dir exists and whether it reflects docs built with model.
// With no docs, only the index's own consistency is checked.
func Inspect(dir string, docs []document.Document, model string) (*Status, error) {
	status := &Status{Dir: dir, Exists: Exists(dir)}
	if !status.Exists {
		return status, nil
	}

	manifest, err := ReadManifest(dir)
	if err == nil {
		status.Manifest = manifest
	}
	if size, sizeErr := IndexSize(dir); sizeErr == nil {
		status.SizeBytes = size
	}

	switch {
	case err != nil:
		// An unreadable or incomplete index is stale whatever the documents are.
		status.StaleReason = staleReason(nil, err, "", model)
	case len(docs) > 0:
		status.StaleReason = staleReason(manifest, nil, SourceHash(WithIDs(docs)), model)
	}
	status.Stale = status.StaleReason != ""
	return status, nil
}
