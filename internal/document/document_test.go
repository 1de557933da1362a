package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDocument_MetadataKeys(t *testing.T) {
	d := Document{Metadata: map[string]string{"row": "1", "source": "a.csv", "extra": "x"}}
	if diff := cmp.Diff([]string{"extra", "row", "source"}, d.MetadataKeys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if d.Source() != "a.csv" {
		t.Errorf("Source() = %q", d.Source())
	}
}

func TestDocument_Snippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		n       int
		want    string
	}{
		{"first line only", "id: T1\nname: Graphene", 50, "id: T1"},
		{"truncated", "name: Superconductivity", 4, "name..."},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Document{Content: tt.content}.Snippet(tt.n)
			if got != tt.want {
				t.Errorf("Snippet(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestContents(t *testing.T) {
	docs := []Document{{Content: "a"}, {Content: "b"}}
	if diff := cmp.Diff([]string{"a", "b"}, Contents(docs)); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}
