package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/export"
	"github.com/researchatlas/atlas/internal/logger"
	"github.com/researchatlas/atlas/internal/openalex"
	"github.com/researchatlas/atlas/internal/ranking"
)

var (
	fetchDomain       int
	fetchCountry      string
	fetchTopSubfields int
	fetchTopTopics    int
	fetchConcurrency  int
	fetchOutDir       string
	fetchStrict       bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchDomain, "domain", config.DefaultDomainID, "OpenAlex domain id")
	fetchCmd.Flags().StringVar(&fetchCountry, "country", config.DefaultCountry, "Two-letter institution country code")
	fetchCmd.Flags().IntVar(&fetchTopSubfields, "top-subfields", config.DefaultTopSubfields, "Number of subfields to rank")
	fetchCmd.Flags().IntVar(&fetchTopTopics, "top-topics", config.DefaultTopTopics, "Number of topics per subfield")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", config.DefaultConcurrency, "Subfields fetched in parallel")
	fetchCmd.Flags().StringVarP(&fetchOutDir, "out", "o", config.DefaultDataDir, "Directory for CSV output")
	fetchCmd.Flags().BoolVar(&fetchStrict, "strict", false, "Write nothing if any subfield fails")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Rank subfields and topics of a domain from OpenAlex",
	Long: `Rank the top subfields of an OpenAlex domain by the number of works with an
author at an institution in the configured country, then rank the top topics of
each subfield the same way, and write the results as CSV.

Files written to the output directory:
  topics_subfield_<id>.csv     one per subfield with topics
  subfield_topics_<cc>.csv     every topic with its subfield id
  subfields_<cc>.csv           the subfield ranking

A subfield whose topics cannot be fetched is reported and skipped; the others
are still written and the command exits with code 4. Use --strict to write
nothing in that case.

Set OPENALEX_EMAIL to use the OpenAlex polite pool.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

// FetchSubfield is one subfield row of the fetch response.
type FetchSubfield struct {
	Rank       int    `json:"rank"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	WorksCount int    `json:"works_count"`
	Topics     int    `json:"topics"`
	Found      int    `json:"topics_found"`
	Error      string `json:"error,omitempty"`
}

// FetchResponse is the response for the fetch command.
type FetchResponse struct {
	Status        string               `json:"status"`
	DomainID      int                  `json:"domain_id"`
	Country       string               `json:"country"`
	Subfields     []FetchSubfield      `json:"subfields"`
	Failed        int                  `json:"failed"`
	TopicsFetched int                  `json:"topics_fetched"`
	AverageTopics float64              `json:"average_topics"`
	Output        *export.WriteSummary `json:"output,omitempty"`
}

// applyFetchFlags lets explicitly set flags override the config file.
func applyFetchFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	flags := cmd.Flags()
	if flags.Changed("domain") {
		cfg.OpenAlex.DomainID = fetchDomain
	}
	if flags.Changed("country") {
		cfg.OpenAlex.Country = fetchCountry
	}
	if flags.Changed("top-subfields") {
		cfg.OpenAlex.TopSubfields = fetchTopSubfields
	}
	if flags.Changed("top-topics") {
		cfg.OpenAlex.TopTopics = fetchTopTopics
	}
	if flags.Changed("concurrency") {
		cfg.OpenAlex.Concurrency = fetchConcurrency
	}
	if flags.Changed("out") {
		cfg.Output.DataDir = config.ExpandPath(fetchOutDir)
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	cfg := mustLoadConfig()
	applyFetchFlags(cmd, cfg)
	mustValidateConfig(cfg)

	if cfg.OpenAlex.Email == "" {
		logger.Warn("%s is not set; requests will not use the OpenAlex polite pool", config.EnvOpenAlexEmail)
	}

	opts := []ranking.Option{
		ranking.WithCountry(cfg.OpenAlex.Country),
		ranking.WithConcurrency(cfg.OpenAlex.Concurrency),
	}
	if humanOutput {
		opts = append(opts, ranking.WithProgress(ranking.ProgressFunc(func(current, total int, sf ranking.SubfieldRecord) {
			logger.Info("Fetching topics for subfield %d/%d: %s", current, total, sf.Name)
		})))
	}
	ranker := ranking.NewRanker(newOpenAlexClient(cfg), opts...)

	logger.Section(fmt.Sprintf("Ranking subfields of domain %d (%s)", cfg.OpenAlex.DomainID, ranker.Country()))
	result, err := ranker.RankTopicsForSubfields(ctx, cfg.OpenAlex.DomainID, cfg.OpenAlex.TopSubfields, cfg.OpenAlex.TopTopics)
	if err != nil {
		if ctx.Err() != nil {
			exitWithError(ExitError, "fetch interrupted: %v", err)
		}
		// Without a subfield ranking there is nothing to write.
		exitWithError(ExitError, "ranking subfields: %v%s", err, fetchFailureHint(err))
	}

	failures := result.Failures()
	for _, f := range failures {
		logger.Error("fetching topics for %s (%s): %v%s", f.Subfield.Name, f.Subfield.ID, f.Err, fetchFailureHint(f.Err))
	}
	if fetchStrict && len(failures) > 0 {
		exitWithError(ExitPartial, "%d of %d subfields failed, nothing written: %v", len(failures), result.Len(), result.Err())
	}

	writer := export.NewCSVWriter(cfg.Output.DataDir, ranker.Country())
	summary, err := writer.Write(result, time.Now())
	if err != nil {
		exitWithError(ExitError, "writing results: %v", err)
	}
	for _, id := range summary.SkippedEmpty {
		logger.Warn("subfield %s has no topics; no file written", id)
	}

	resp := buildFetchResponse(cfg, result, summary)
	if humanOutput {
		printFetchHuman(resp)
	} else {
		outputJSON(resp)
	}

	if len(failures) > 0 {
		os.Exit(ExitPartial)
	}
	return nil
}

// fetchFailureHint suggests a remedy for OpenAlex errors the user can act on.
func fetchFailureHint(err error) string {
	switch {
	case openalex.IsRateLimited(err):
		return " (rate limited: lower openalex.rate_limit or openalex.concurrency, or set OPENALEX_EMAIL)"
	case openalex.IsAuthError(err):
		return " (request rejected: check openalex.email and openalex.base_url)"
	case openalex.IsNotFound(err):
		return " (not found: check the domain and subfield ids)"
	default:
		return ""
	}
}

func buildFetchResponse(cfg *config.AppConfig, result *ranking.TopicRanking, summary *export.WriteSummary) FetchResponse {
	resp := FetchResponse{
		Status:        "complete",
		DomainID:      cfg.OpenAlex.DomainID,
		Country:       cfg.OpenAlex.Country,
		Subfields:     make([]FetchSubfield, 0, result.Len()),
		Failed:        len(result.Failures()),
		TopicsFetched: result.TopicCount(),
		AverageTopics: summary.AverageTopics(),
		Output:        summary,
	}
	if resp.Failed > 0 {
		resp.Status = "partial"
	}
	for i, s := range result.Subfields {
		row := FetchSubfield{
			Rank:       i + 1,
			ID:         s.Subfield.ID,
			Name:       s.Subfield.Name,
			WorksCount: s.Subfield.WorksCount,
			Topics:     len(s.Topics),
			Found:      s.Found,
		}
		if s.Err != nil {
			row.Error = s.Err.Error()
		}
		resp.Subfields = append(resp.Subfields, row)
	}
	return resp
}

func printFetchHuman(resp FetchResponse) {
	table := newTable(os.Stdout, "#", "Subfield", "ID", "Works", "Topics")
	for _, s := range resp.Subfields {
		topics := strconv.Itoa(s.Topics)
		if s.Error != "" {
			topics = "failed"
		}
		table.Append([]string{
			strconv.Itoa(s.Rank),
			truncateString(s.Name, SubfieldMaxLen),
			s.ID,
			humanize.Comma(int64(s.WorksCount)),
			topics,
		})
	}
	table.Render()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Subfields processed: %d\n", len(resp.Subfields)-resp.Failed)
	if resp.Failed > 0 {
		fmt.Printf("  Subfields failed: %d\n", resp.Failed)
	}
	fmt.Printf("  Topics fetched: %d\n", resp.TopicsFetched)
	fmt.Printf("  Average topics per subfield: %.1f\n", resp.AverageTopics)
	if resp.Output != nil {
		fmt.Printf("  Files written to %s: %d\n", resp.Output.Dir, len(resp.Output.Files))
	}
}
