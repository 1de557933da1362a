package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/researchatlas/atlas/internal/ranking"
)

var fetchedAt = time.Date(2026, 3, 15, 9, 30, 5, 0, time.UTC)

func testRanking() *ranking.TopicRanking {
	return &ranking.TopicRanking{Subfields: []ranking.SubfieldTopics{
		{
			Subfield: ranking.SubfieldRecord{ID: "3104", Name: "Condensed Matter Physics", WorksCount: 900},
			Topics: []ranking.TopicRecord{
				{ID: "T2", Name: "Topological insulators", Field: "Physics and Astronomy", Subfield: "Condensed Matter Physics", WorksCount: 400},
				{ID: "T1", Name: "Superconductivity, high-Tc", Field: "Physics and Astronomy", Subfield: "Condensed Matter Physics", WorksCount: 300},
			},
		},
		{
			Subfield: ranking.SubfieldRecord{ID: "3107", Name: "Atomic Physics", WorksCount: 500},
			Err:      errors.New("rate limited"),
		},
		{
			Subfield: ranking.SubfieldRecord{ID: "1606", Name: "Physical Chemistry", WorksCount: 100},
			Topics:   []ranking.TopicRecord{},
		},
	}}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return rows
}

func TestCSVWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	summary, err := NewCSVWriter(dir, "US").Write(testRanking(), fetchedAt)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	wantFiles := []string{"topics_subfield_3104.csv", "subfield_topics_us.csv", "subfields_us.csv"}
	if diff := cmp.Diff(wantFiles, summary.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if summary.Subfields != 2 || summary.TopicRows != 2 || summary.AverageTopics() != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if diff := cmp.Diff([]string{"1606"}, summary.SkippedEmpty); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}

	perSubfield := [][]string{
		{"id", "name", "field", "subfield", "us_works_count", "fetch_date"},
		{"T2", "Topological insulators", "Physics and Astronomy", "Condensed Matter Physics", "400", "2026-03-15 09:30:05"},
		{"T1", "Superconductivity, high-Tc", "Physics and Astronomy", "Condensed Matter Physics", "300", "2026-03-15 09:30:05"},
	}
	if diff := cmp.Diff(perSubfield, readCSV(t, filepath.Join(dir, "topics_subfield_3104.csv"))); diff != "" {
		t.Errorf("per-subfield file mismatch (-want +got):\n%s", diff)
	}

	combined := readCSV(t, filepath.Join(dir, "subfield_topics_us.csv"))
	if diff := cmp.Diff([]string{"id", "name", "field", "subfield", "us_works_count", "subfield_id", "fetch_date"}, combined[0]); diff != "" {
		t.Errorf("combined header mismatch (-want +got):\n%s", diff)
	}
	if len(combined) != 3 || combined[1][5] != "3104" {
		t.Errorf("combined rows = %v", combined)
	}

	subfields := readCSV(t, filepath.Join(dir, "subfields_us.csv"))
	want := [][]string{
		{"id", "name", "us_works_count", "fetch_date"},
		{"3104", "Condensed Matter Physics", "900", "2026-03-15 09:30:05"},
		{"1606", "Physical Chemistry", "100", "2026-03-15 09:30:05"},
	}
	if diff := cmp.Diff(want, subfields); diff != "" {
		t.Errorf("subfields file mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(dir, "topics_subfield_3107.csv")); !os.IsNotExist(err) {
		t.Error("failed subfield must not get a file")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(wantFiles) {
		t.Errorf("data dir has %d entries, want %d (temp files left behind?)", len(entries), len(wantFiles))
	}
}

func TestCSVWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics_subfield_3104.csv")
	os.WriteFile(path, []byte("stale content that is much longer than the new file\n"), 0644)

	if _, err := NewCSVWriter(dir, "us").Write(testRanking(), fetchedAt); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "stale") {
		t.Error("existing file should be overwritten")
	}
}

func TestCSVWriter_Empty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	summary, err := NewCSVWriter(dir, "US").Write(&ranking.TopicRanking{}, fetchedAt)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(summary.Files) != 0 || summary.AverageTopics() != 0 {
		t.Errorf("unexpected summary for empty ranking: %+v", summary)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("output directory should be created")
	}
}

func TestCSVWriter_PartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	r := testRanking()
	r.Subfields[1] = ranking.SubfieldTopics{
		Subfield: ranking.SubfieldRecord{ID: "bad", Name: "Blocked"},
		Topics:   []ranking.TopicRecord{{ID: "T9", Name: "x", WorksCount: 1}},
	}
	// A directory in the way makes the second per-subfield file fail.
	os.Mkdir(filepath.Join(dir, SubfieldTopicsFileName("bad")), 0755)

	summary, err := NewCSVWriter(dir, "US").Write(r, fetchedAt)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "subfield bad") {
		t.Errorf("error should name the subfield: %v", err)
	}
	if diff := cmp.Diff([]string{"topics_subfield_3104.csv"}, summary.Files); diff != "" {
		t.Errorf("written files mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "topics_subfield_3104.csv")); err != nil {
		t.Error("earlier file should stay written")
	}
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SubfieldTopicsFileName("3104"), "topics_subfield_3104.csv"},
		{CombinedFileName("US"), "subfield_topics_us.csv"},
		{SubfieldsFileName("GB"), "subfields_gb.csv"},
		{WorksCountColumn("US"), "us_works_count"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
