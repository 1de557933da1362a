// Package ranking turns grouped work counts into ranked subfield and topic lists.
package ranking

// UnknownName is used when a group carries no taxonomy context.
const UnknownName = "Unknown"

// SubfieldRecord is one subfield bucket of a domain, with its work count in the target country.
type SubfieldRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WorksCount int    `json:"works_count"`
}

// TopicRecord is one topic bucket within a subfield.
// SubfieldID is only set once topics are flattened into a combined list.
type TopicRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Field      string `json:"field"`
	Subfield   string `json:"subfield"`
	WorksCount int    `json:"works_count"`
	SubfieldID string `json:"subfield_id,omitempty"`
}

// SubfieldTopics holds the outcome of fetching topics for one subfield.
// Exactly one of Topics or Err is meaningful.
type SubfieldTopics struct {
	Subfield SubfieldRecord `json:"subfield"`
	Topics   []TopicRecord  `json:"topics"`
	// Found is the number of topic groups before truncation.
	Found int   `json:"found"`
	Err   error `json:"-"`
}

// OK reports whether the topics for this subfield were fetched.
func (s SubfieldTopics) OK() bool {
	return s.Err == nil
}
