package openalex

import "testing"

func TestShortID(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"https://openalex.org/subfields/1708", "1708"},
		{"https://openalex.org/T10001", "T10001"},
		{"https://openalex.org/subfields/1708/", "1708"},
		{"3100", "3100"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortID(tt.key); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGroupTaxonomyNames(t *testing.T) {
	g := Group{PrimaryTopic: &PrimaryTopic{Field: &Entity{DisplayName: "Chemistry"}}}

	if got := g.FieldName("Unknown"); got != "Chemistry" {
		t.Errorf("FieldName = %q, want Chemistry", got)
	}
	if got := g.SubfieldName("Unknown"); got != "Unknown" {
		t.Errorf("SubfieldName = %q, want Unknown", got)
	}
	if got := (Group{}).FieldName("Unknown"); got != "Unknown" {
		t.Errorf("FieldName without primary topic = %q, want Unknown", got)
	}
}

func TestFilterString(t *testing.T) {
	var nilFilter *Filter
	if nilFilter.String() != "" || nilFilter.Len() != 0 {
		t.Error("nil filter should render empty")
	}

	f := NewFilter().Add(FieldDomainID, 3).Add(FieldSubfieldID, "3104").Add(FieldCountryCode, "US")
	want := "topics.domain.id:3,topics.subfield.id:3104,authorships.institutions.country_code:US"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}
}
