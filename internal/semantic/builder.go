package semantic

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/researchatlas/atlas/internal/document"
	"github.com/researchatlas/atlas/internal/embedding"
	"github.com/researchatlas/atlas/internal/storage"
)

// ProgressReporter receives progress updates during index building.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// StalePolicy decides what EnsureIndex does with an index whose documents changed.
type StalePolicy string

const (
	StaleKeep    StalePolicy = "keep"
	StaleRebuild StalePolicy = "rebuild"
	StaleFail    StalePolicy = "fail"
)

// ParseStalePolicy parses a policy name. An empty string means StaleKeep.
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch p := StalePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return StaleKeep, nil
	case StaleKeep, StaleRebuild, StaleFail:
		return p, nil
	default:
		return "", fmt.Errorf("unknown stale policy %q (want keep, rebuild or fail)", s)
	}
}

// Builder constructs a vector index from documents.
type Builder struct {
	provider embedding.Provider
	progress ProgressReporter
	policy   StalePolicy
	force    bool
}

// NewBuilder creates a new index builder with the keep policy.
func NewBuilder(provider embedding.Provider) *Builder {
	return &Builder{
		provider: provider,
		policy:   StaleKeep,
	}
}

// SetProgressReporter sets the progress reporter for the builder.
func (b *Builder) SetProgressReporter(reporter ProgressReporter) {
	b.progress = reporter
}

// SetStalePolicy sets how EnsureIndex treats an existing index built from other documents.
func (b *Builder) SetStalePolicy(policy StalePolicy) {
	b.policy = policy
}

// SetForce makes EnsureIndex rebuild an existing index even when it is current.
func (b *Builder) SetForce(force bool) {
	b.force = force
}

// Build embeds every document and returns the in-memory index.
// Documents must carry unique IDs; see WithIDs.
func (b *Builder) Build(ctx context.Context, docs []document.Document) (*VectorIndex, *BuildStats, error) {
	if len(docs) == 0 {
		return nil, nil, ErrNoDocuments
	}

	startTime := time.Now()
	idx := NewVectorIndex(b.provider.ModelName(), b.provider.Dimensions())
	stats := &BuildStats{}
	total := len(docs)

	for i, doc := range docs {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		if b.progress != nil {
			b.progress.OnProgress(i+1, total)
		}

		if idx.HasDocument(doc.ID) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateDocumentID, doc.ID)
		}

		emb, err := b.provider.Embed(ctx, doc.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding document %s: %w", doc.ID, err)
		}

		if err := idx.AddEmbedding(doc.ID, emb.Vector); err != nil {
			return nil, nil, fmt.Errorf("adding embedding for %s: %w", doc.ID, err)
		}
		stats.DocumentsIndexed++
	}

	idx.BuildDurationMs = time.Since(startTime).Milliseconds()
	stats.Duration = time.Since(startTime)

	return idx, stats, nil
}

// EnsureIndex makes sure dir holds an index over docs.
//
// If dir does not exist, every document is embedded and the index is written to dir.
// If dir exists and was built from the same documents and model, nothing is embedded.
// Otherwise the stale policy applies: StaleKeep leaves it in place, StaleRebuild
// replaces it and StaleFail returns ErrIndexStale.
func (b *Builder) EnsureIndex(ctx context.Context, docs []document.Document, dir string) (*EnsureResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	if err := checkIndexPath(dir); err != nil {
		return nil, err
	}

	docs = WithIDs(docs)
	hash := SourceHash(docs)
	action := ActionBuilt

	if Exists(dir) {
		manifest, err := ReadManifest(dir)
		reason := staleReason(manifest, err, hash, b.provider.ModelName())
		switch {
		case b.force:
			action = ActionRebuilt
		case reason == "":
			return &EnsureResult{Action: ActionReused, Dir: dir, Manifest: *manifest}, nil
		case b.policy == StaleFail:
			return nil, fmt.Errorf("%w: %s", ErrIndexStale, reason)
		case b.policy == StaleRebuild:
			action = ActionRebuilt
		default:
			result := &EnsureResult{Action: ActionStale, Dir: dir, StaleReason: reason}
			if manifest != nil {
				result.Manifest = *manifest
			}
			return result, nil
		}
	}

	idx, stats, err := b.Build(ctx, docs)
	if err != nil {
		return nil, err
	}

	manifest := Manifest{
		Model:         idx.ModelName,
		Dimensions:    idx.Dimensions,
		SourceHash:    hash,
		BuildID:       uuid.NewString(),
		CreatedAt:     idx.CreatedAt.UTC(),
		DocumentCount: idx.DocumentCount,
	}
	if err := writeIndex(dir, idx, docs, manifest); err != nil {
		return nil, err
	}

	if size, err := IndexSize(dir); err == nil {
		stats.IndexSizeBytes = size
	}

	return &EnsureResult{Action: action, Dir: dir, Manifest: manifest, Stats: stats}, nil
}

// writeIndex writes the index into a sibling temp directory and moves it into place.
func writeIndex(dir string, idx *VectorIndex, docs []document.Document, manifest Manifest) error {
	if err := checkIndexPath(dir); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tmp := filepath.Join(parent, "."+filepath.Base(dir)+"-"+manifest.BuildID)
	if err := idx.Save(tmp); err != nil {
		os.RemoveAll(tmp)
		return err
	}

	if err := writeDocuments(tmp, docs, manifest); err != nil {
		os.RemoveAll(tmp)
		return err
	}

	// The previous index stays on disk until the new one is in place.
	var old string
	if Exists(dir) {
		old = filepath.Join(parent, "."+filepath.Base(dir)+"-old-"+manifest.BuildID)
		if err := os.Rename(dir, old); err != nil {
			os.RemoveAll(tmp)
			return fmt.Errorf("moving old index aside: %w", err)
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		os.RemoveAll(tmp)
		if old != "" {
			if restoreErr := os.Rename(old, dir); restoreErr != nil {
				return fmt.Errorf("moving index into place: %w (previous index left at %s)", err, old)
			}
		}
		return fmt.Errorf("moving index into place: %w", err)
	}
	if old != "" {
		os.RemoveAll(old)
	}
	return nil
}

// checkIndexPath rejects an index location occupied by something other than a directory.
func checkIndexPath(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%w: %s exists and is not a directory", ErrIndexPathInvalid, dir)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("checking index path: %w", err)
	}
	return nil
}

func writeDocuments(dir string, docs []document.Document, manifest Manifest) error {
	db, err := storage.OpenDB(DocumentsPath(dir))
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ReplaceDocuments(docs); err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}
	if err := db.SetMetaValues(manifest.values()); err != nil {
		return fmt.Errorf("storing manifest: %w", err)
	}
	return nil
}

// WithIDs returns a copy of docs where documents without an ID get one from their position.
func WithIDs(docs []document.Document) []document.Document {
	out := make([]document.Document, len(docs))
	copy(out, docs)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = fmt.Sprintf("doc-%d", i)
		}
	}
	return out
}

// SourceHash computes a SHA256 hash over document IDs, contents and metadata, in order.
func SourceHash(docs []document.Document) string {
	h := sha256.New()
	for _, doc := range docs {
		io.WriteString(h, doc.ID)
		h.Write([]byte{0})
		io.WriteString(h, doc.Content)
		h.Write([]byte{0})
		for _, k := range doc.MetadataKeys() {
			io.WriteString(h, k+"="+doc.Metadata[k])
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// staleReason explains why an existing index does not match, or returns "" if it does.
func staleReason(manifest *Manifest, readErr error, hash, model string) string {
	switch {
	case readErr != nil:
		return fmt.Sprintf("unreadable index: %v", readErr)
	case manifest.SourceHash != hash:
		return "source documents changed"
	case manifest.Model != model:
		return fmt.Sprintf("embedding model changed from %s to %s", manifest.Model, model)
	default:
		return ""
	}
}
