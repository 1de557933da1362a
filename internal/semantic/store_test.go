package semantic

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/researchatlas/atlas/internal/storage"
)

func buildTestIndex(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	if _, err := NewBuilder(&countingProvider{}).EnsureIndex(context.Background(), testDocs(), dir); err != nil {
		t.Fatalf("EnsureIndex failed: %v", err)
	}
	return dir
}

func TestOpenStore_Search(t *testing.T) {
	store, err := OpenStore(buildTestIndex(t))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	provider := &countingProvider{}
	query, _ := provider.Embed(context.Background(), "xyz")

	docs, err := store.Search(query.Vector, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "sub.csv#1" {
		t.Errorf("top document = %s, want sub.csv#1", docs[0].ID)
	}
	if docs[0].Content != "name: xyz xyz" || docs[0].Source() != "sub.csv" {
		t.Errorf("document not loaded from store: %+v", docs[0])
	}
	if docs[0].Score < docs[1].Score {
		t.Errorf("scores not descending: %v < %v", docs[0].Score, docs[1].Score)
	}

	all, err := store.Search(query.Vector, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("k larger than the index should return everything, got %d", len(all))
	}

	if store.Manifest().DocumentCount != 3 || store.Index().Dimensions != 3 {
		t.Errorf("unexpected manifest %+v", store.Manifest())
	}
}

func TestOpenStore_NotFound(t *testing.T) {
	if _, err := OpenStore(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
	if _, err := OpenStore(t.TempDir()); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound for empty dir, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	missing, err := Inspect(filepath.Join(t.TempDir(), "missing"), testDocs(), "test-model")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if missing.Exists || missing.Stale {
		t.Errorf("missing index status = %+v", missing)
	}

	dir := buildTestIndex(t)

	fresh, err := Inspect(dir, testDocs(), "test-model")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !fresh.Exists || fresh.Stale || fresh.Manifest == nil || fresh.SizeBytes <= 0 {
		t.Errorf("fresh status = %+v", fresh)
	}

	changed := testDocs()[:2]
	stale, err := Inspect(dir, changed, "test-model")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !stale.Stale || stale.StaleReason != "source documents changed" {
		t.Errorf("stale status = %+v", stale)
	}

	unknown, _ := Inspect(dir, nil, "test-model")
	if unknown.Stale {
		t.Error("staleness should not be evaluated without documents")
	}
}

func TestIncompleteDocumentStore(t *testing.T) {
	dir := buildTestIndex(t)

	db, err := storage.OpenDB(DocumentsPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ReplaceDocuments(testDocs()[:2]); err != nil {
		t.Fatal(err)
	}
	db.Close()

	status, err := Inspect(dir, nil, "test-model")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !status.Stale || !strings.Contains(status.StaleReason, "2 of 3 documents") {
		t.Errorf("status = %+v, want stale incomplete index", status)
	}

	if _, err := OpenStore(dir); !errors.Is(err, ErrIncompleteIndex) {
		t.Errorf("OpenStore error = %v, want ErrIncompleteIndex", err)
	}

	result, err := NewBuilder(&countingProvider{}).EnsureIndex(context.Background(), testDocs(), dir)
	if err != nil {
		t.Fatalf("EnsureIndex failed: %v", err)
	}
	if result.Action != ActionStale {
		t.Errorf("action = %s, want stale", result.Action)
	}
}
