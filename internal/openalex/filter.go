package openalex

import (
	"fmt"
	"strings"
)

// Filter is an ordered set of field:value terms joined with commas (logical AND).
type Filter struct {
	terms []filterTerm
}

type filterTerm struct {
	field string
	value string
}

// NewFilter creates an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Add appends a field:value term and returns the filter for chaining.
func (f *Filter) Add(field string, value any) *Filter {
	f.terms = append(f.terms, filterTerm{field: field, value: fmt.Sprint(value)})
	return f
}

// Len returns the number of terms.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}

// String renders the filter in the API's filter syntax.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(f.terms))
	for i, t := range f.terms {
		parts[i] = t.field + ":" + t.value
	}
	return strings.Join(parts, ",")
}
