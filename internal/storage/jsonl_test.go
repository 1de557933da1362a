package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type logEntry struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

func TestReadJSONL_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadJSONL[logEntry](path)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ReadJSONL() returned %d records, want 0", len(records))
	}
}

func TestReadJSONL_NonExistentFile(t *testing.T) {
	records, err := ReadJSONL[logEntry]("/nonexistent/path/log.jsonl")
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v (should return nil for nonexistent file)", err)
	}
	if len(records) != 0 {
		t.Errorf("ReadJSONL() returned %v, want none", records)
	}
}

func TestReadJSONL_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	content := `{"query":"a","answer":"1"}` + "\n\n" + `{"query":"b","answer":"2"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadJSONL[logEntry](path)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	want := []logEntry{{"a", "1"}, {"b", "2"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONL_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	content := `{"query":"a"}` + "\n" + `not json` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadJSONL[logEntry](path)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v, want parse error on line 2", err)
	}
}

func TestAppendJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chat.jsonl")

	entries := []logEntry{
		{Query: "Which subfield leads?", Answer: "Condensed Matter Physics"},
		{Query: "Multi\nline", Answer: "kept on one line"},
	}
	for _, e := range entries {
		if err := AppendJSONL(path, e); err != nil {
			t.Fatalf("AppendJSONL() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("file has %d lines, want 2", lines)
	}

	got, err := ReadJSONL[logEntry](path)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendJSONL_Unencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	if err := AppendJSONL(path, make(chan int)); err == nil {
		t.Error("AppendJSONL() should fail for values JSON cannot encode")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created when encoding fails")
	}
}
