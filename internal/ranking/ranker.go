package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/researchatlas/atlas/internal/openalex"
)

// ErrInvalidLimit is returned for negative top-N values.
var ErrInvalidLimit = errors.New("top-N limit must be >= 0")

// DefaultCountry is the country whose institutions scope every query.
const DefaultCountry = "US"

// WorksGrouper runs grouped-count queries against a works corpus.
type WorksGrouper interface {
	GroupWorks(ctx context.Context, filter *openalex.Filter, groupBy string) ([]openalex.Group, error)
}

// ProgressReporter receives progress updates while topics are fetched.
// With concurrency above one it may be called from several goroutines.
type ProgressReporter interface {
	OnSubfield(current, total int, subfield SubfieldRecord)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int, subfield SubfieldRecord)

// OnSubfield implements ProgressReporter.
func (f ProgressFunc) OnSubfield(current, total int, subfield SubfieldRecord) {
	f(current, total, subfield)
}

// Ranker ranks subfields and topics of a domain by work count in one country.
type Ranker struct {
	works       WorksGrouper
	country     string
	concurrency int
	progress    ProgressReporter
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithCountry sets the ISO country code that institutions must match.
func WithCountry(code string) Option {
	return func(r *Ranker) {
		r.country = strings.ToUpper(code)
	}
}

// WithConcurrency sets how many subfields are fetched at once. Values below one mean sequential.
func WithConcurrency(n int) Option {
	return func(r *Ranker) {
		r.concurrency = n
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(r *Ranker) {
		r.progress = p
	}
}

// NewRanker creates a Ranker over the given works source.
func NewRanker(works WorksGrouper, opts ...Option) *Ranker {
	r := &Ranker{
		works:       works,
		country:     DefaultCountry,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// Country returns the country code the ranker filters on.
func (r *Ranker) Country() string {
	return r.country
}

// RankSubfields returns the topN subfields of a domain by work count, highest first.
func (r *Ranker) RankSubfields(ctx context.Context, domainID int, topN int) ([]SubfieldRecord, error) {
	if topN < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, topN)
	}

	filter := openalex.NewFilter().
		Add(openalex.FieldDomainID, domainID).
		Add(openalex.FieldCountryCode, r.country)

	groups, err := r.works.GroupWorks(ctx, filter, openalex.FieldSubfieldID)
	if err != nil {
		return nil, fmt.Errorf("grouping works by subfield: %w", err)
	}

	return TopN(subfieldsFromGroups(groups), topN, subfieldCount), nil
}

// RankTopics returns the topN topics of one subfield by work count, and how many topics were found.
func (r *Ranker) RankTopics(ctx context.Context, domainID int, subfieldID string, topN int) ([]TopicRecord, int, error) {
	if topN < 0 {
		return nil, 0, fmt.Errorf("%w: got %d", ErrInvalidLimit, topN)
	}

	filter := openalex.NewFilter().
		Add(openalex.FieldDomainID, domainID).
		Add(openalex.FieldSubfieldID, subfieldID).
		Add(openalex.FieldCountryCode, r.country)

	groups, err := r.works.GroupWorks(ctx, filter, openalex.FieldTopicID)
	if err != nil {
		return nil, 0, fmt.Errorf("grouping works by topic for subfield %s: %w", subfieldID, err)
	}

	topics := topicsFromGroups(groups)
	return TopN(topics, topN, topicCount), len(topics), nil
}

// RankTopicsForSubfields ranks the top subfields of a domain and then the top topics of each.
//
// A failure on one subfield is recorded on its entry and does not affect the others.
// The returned error is non-nil only when the subfield ranking itself could not be
// fetched (the ranking is then empty) or the context was cancelled.
func (r *Ranker) RankTopicsForSubfields(ctx context.Context, domainID, topNSubfields, topNTopics int) (*TopicRanking, error) {
	if topNTopics < 0 {
		return &TopicRanking{}, fmt.Errorf("%w: got %d", ErrInvalidLimit, topNTopics)
	}

	subfields, err := r.RankSubfields(ctx, domainID, topNSubfields)
	if err != nil {
		return &TopicRanking{}, err
	}

	ranking := &TopicRanking{Subfields: make([]SubfieldTopics, len(subfields))}

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, sf := range subfields {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if r.progress != nil {
				r.progress.OnSubfield(i+1, len(subfields), sf)
			}
			topics, found, err := r.RankTopics(ctx, domainID, sf.ID, topNTopics)
			// Each goroutine owns index i.
			ranking.Subfields[i] = SubfieldTopics{Subfield: sf, Topics: topics, Found: found, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return ranking.completed(), err
	}
	return ranking, nil
}

// TopicRanking is the per-subfield topic ranking, in subfield rank order.
type TopicRanking struct {
	Subfields []SubfieldTopics `json:"subfields"`
}

// completed drops entries never started because of cancellation.
func (t *TopicRanking) completed() *TopicRanking {
	out := &TopicRanking{}
	for _, s := range t.Subfields {
		if s.Subfield.ID != "" {
			out.Subfields = append(out.Subfields, s)
		}
	}
	return out
}

// Len returns the number of subfields in the ranking.
func (t *TopicRanking) Len() int {
	return len(t.Subfields)
}

// Successful returns the entries whose topics were fetched.
func (t *TopicRanking) Successful() []SubfieldTopics {
	var ok []SubfieldTopics
	for _, s := range t.Subfields {
		if s.OK() {
			ok = append(ok, s)
		}
	}
	return ok
}

// Failures returns the entries whose topic fetch failed.
func (t *TopicRanking) Failures() []SubfieldTopics {
	var failed []SubfieldTopics
	for _, s := range t.Subfields {
		if !s.OK() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Err combines all per-subfield failures, or returns nil if there were none.
func (t *TopicRanking) Err() error {
	var result *multierror.Error
	for _, s := range t.Failures() {
		result = multierror.Append(result, fmt.Errorf("subfield %s (%s): %w", s.Subfield.ID, s.Subfield.Name, s.Err))
	}
	return result.ErrorOrNil()
}

// Combined flattens every successful topic list into one slice, stamping SubfieldID.
// Order follows subfield rank, then topic rank.
func (t *TopicRanking) Combined() []TopicRecord {
	var all []TopicRecord
	for _, s := range t.Successful() {
		for _, topic := range s.Topics {
			topic.SubfieldID = s.Subfield.ID
			all = append(all, topic)
		}
	}
	return all
}

// TopicCount returns the total number of ranked topics across successful subfields.
func (t *TopicRanking) TopicCount() int {
	n := 0
	for _, s := range t.Successful() {
		n += len(s.Topics)
	}
	return n
}
