package openalex

import "strings"

// Filter field paths used by the works endpoint.
const (
	FieldDomainID    = "topics.domain.id"
	FieldSubfieldID  = "topics.subfield.id"
	FieldTopicID     = "topics.id"
	FieldCountryCode = "authorships.institutions.country_code"
)

// Group is one bucket of a grouped-count query.
type Group struct {
	Key            string        `json:"key"`
	KeyDisplayName string        `json:"key_display_name"`
	Count          int           `json:"count"`
	PrimaryTopic   *PrimaryTopic `json:"primary_topic,omitempty"`
}

// PrimaryTopic carries the taxonomy context some groups embed.
type PrimaryTopic struct {
	ID          string  `json:"id,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Field       *Entity `json:"field,omitempty"`
	Subfield    *Entity `json:"subfield,omitempty"`
	Domain      *Entity `json:"domain,omitempty"`
}

// Entity is a minimal taxonomy node (domain, field, subfield or topic).
type Entity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// FieldName returns the primary topic's field display name, or fallback.
func (g Group) FieldName(fallback string) string {
	if g.PrimaryTopic == nil || g.PrimaryTopic.Field == nil || g.PrimaryTopic.Field.DisplayName == "" {
		return fallback
	}
	return g.PrimaryTopic.Field.DisplayName
}

// SubfieldName returns the primary topic's subfield display name, or fallback.
func (g Group) SubfieldName(fallback string) string {
	if g.PrimaryTopic == nil || g.PrimaryTopic.Subfield == nil || g.PrimaryTopic.Subfield.DisplayName == "" {
		return fallback
	}
	return g.PrimaryTopic.Subfield.DisplayName
}

// Meta is the metadata block of a works response.
type Meta struct {
	Count            int `json:"count"`
	DBResponseTimeMs int `json:"db_response_time_ms"`
}

// groupByResponse is the body returned for a group_by query.
type groupByResponse struct {
	Meta    Meta    `json:"meta"`
	GroupBy []Group `json:"group_by"`
}

// errorResponse is the body OpenAlex returns for 4xx errors.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ShortID returns the last path segment of an OpenAlex key.
// "https://openalex.org/subfields/1708" becomes "1708" and "https://openalex.org/T10001" becomes "T10001".
func ShortID(key string) string {
	key = strings.TrimRight(key, "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
