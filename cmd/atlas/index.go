package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/embedding"
	"github.com/researchatlas/atlas/internal/importer"
	"github.com/researchatlas/atlas/internal/logger"
	"github.com/researchatlas/atlas/internal/semantic"
)

var (
	noProgress       bool
	indexForce       bool
	indexStalePolicy string
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)

	indexBuildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
	indexBuildCmd.Flags().BoolVar(&indexForce, "force", false, "Rebuild even if the index is current")
	indexBuildCmd.Flags().StringVar(&indexStalePolicy, "stale-policy", "", "What to do with a stale index: keep, rebuild or fail (default from config)")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
	Long:  `Commands for building and checking the vector index over the CSV data directory.`,
}

// IndexBuildResult is the response for index build command.
type IndexBuildResult struct {
	Status           string  `json:"status"`
	Dir              string  `json:"dir"`
	DocumentsIndexed int     `json:"documents_indexed"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Model            string  `json:"model"`
	Dimensions       int     `json:"dimensions"`
	BuildID          string  `json:"build_id"`
	IndexSizeBytes   int64   `json:"index_size_bytes,omitempty"`
	StaleReason      string  `json:"stale_reason,omitempty"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the vector index if it does not exist",
	Long: `Embed every row of every CSV file in the data directory and persist the
vectors and documents to the index directory.

If the index directory already exists it is reused as long as it was built
from the same documents with the same embedding model. When the CSV files have
changed, index.stale_policy (or --stale-policy) decides: keep uses the old
index with a warning, rebuild replaces it, fail exits with code 6.

With the default Ollama backend, run 'ollama pull all-minilm:l6-v2' first.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	cfg := mustLoadConfig()
	if cmd.Flags().Changed("stale-policy") {
		cfg.Index.StalePolicy = indexStalePolicy
		mustValidateConfig(cfg)
	}

	provider := mustEmbeddingProvider(cfg)
	result, err := ensureIndex(ctx, cfg, provider, indexForce, humanOutput && !noProgress)
	exitOnError(err, "building index")

	out := IndexBuildResult{
		Status:           string(result.Action),
		Dir:              result.Dir,
		DocumentsIndexed: result.Manifest.DocumentCount,
		Model:            result.Manifest.Model,
		Dimensions:       result.Manifest.Dimensions,
		BuildID:          result.Manifest.BuildID,
		StaleReason:      result.StaleReason,
	}
	if result.Stats != nil {
		out.DurationSeconds = result.Stats.Duration.Seconds()
		out.IndexSizeBytes = result.Stats.IndexSizeBytes
	}

	if !humanOutput {
		outputJSON(out)
		return nil
	}

	switch result.Action {
	case semantic.ActionBuilt, semantic.ActionRebuilt:
		fmt.Printf("\nBuild complete:\n")
		fmt.Printf("  Documents indexed: %d\n", out.DocumentsIndexed)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(result.Stats.Duration))
		fmt.Printf("  Index size: %s\n", humanize.Bytes(uint64(out.IndexSizeBytes)))
		fmt.Printf("  Model: %s\n", out.Model)
		fmt.Printf("  Location: %s\n", out.Dir)
	case semantic.ActionReused:
		fmt.Printf("Index is up to date: %d documents, built %s with %s\n",
			out.DocumentsIndexed, humanize.Time(result.Manifest.CreatedAt), out.Model)
	case semantic.ActionStale:
		fmt.Printf("Kept stale index at %s: %s\n", out.Dir, out.StaleReason)
	}
	return nil
}

// ensureIndex loads the CSV documents and makes sure the index over them exists.
// If the data directory cannot be read but an index exists, the index is used as is.
func ensureIndex(ctx context.Context, cfg *config.AppConfig, provider embedding.Provider, force, progress bool) (*semantic.EnsureResult, error) {
	dir := cfg.Index.Dir
	docs, err := importer.LoadCSVDir(cfg.Output.DataDir)
	if err == nil && len(docs) == 0 {
		err = fmt.Errorf("%w: no CSV rows in %s", semantic.ErrNoDocuments, cfg.Output.DataDir)
	}
	if err != nil {
		if semantic.Exists(dir) && !force {
			logger.Warn("cannot read documents (%v); using existing index at %s", err, dir)
			result := &semantic.EnsureResult{Action: semantic.ActionReused, Dir: dir}
			if manifest, mErr := semantic.ReadManifest(dir); mErr == nil {
				result.Manifest = *manifest
			}
			return result, nil
		}
		return nil, err
	}
	logger.Debug("loaded %d documents from %s", len(docs), cfg.Output.DataDir)

	policy, err := semantic.ParseStalePolicy(cfg.Index.StalePolicy)
	if err != nil {
		return nil, err
	}

	// Fail early with a useful hint when a build is certain.
	if force || !semantic.Exists(dir) {
		if err := embedding.Check(ctx, provider); err != nil {
			return nil, err
		}
	}

	builder := semantic.NewBuilder(provider)
	builder.SetStalePolicy(policy)
	builder.SetForce(force)
	if progress {
		builder.SetProgressReporter(semantic.ProgressFunc(printProgress))
		fmt.Fprintf(os.Stderr, "Building vector index from %s...\n", cfg.Output.DataDir)
	}

	result, err := builder.EnsureIndex(ctx, docs, dir)
	if progress {
		clearProgress()
	}
	if err != nil {
		return nil, err
	}

	switch result.Action {
	case semantic.ActionStale:
		logger.Warn("index at %s is stale (%s); using it anyway. Run 'atlas index build --force' to rebuild.", dir, result.StaleReason)
	case semantic.ActionReused:
		logger.Debug("reusing index at %s (build %s)", dir, result.Manifest.BuildID)
	default:
		logger.Info("indexed %d documents into %s", result.Manifest.DocumentCount, dir)
	}
	return result, nil
}

// IndexCheckResult is the response for index check command.
type IndexCheckResult struct {
	Status          string `json:"status"`
	Dir             string `json:"dir"`
	Documents       int    `json:"documents"`
	SourceRows      int    `json:"source_rows"`
	Model           string `json:"model,omitempty"`
	ConfiguredModel string `json:"configured_model"`
	IndexCreated    string `json:"index_created,omitempty"`
	IndexSizeBytes  int64  `json:"index_size_bytes"`
	StaleReason     string `json:"stale_reason,omitempty"`
	Recommendation  string `json:"recommendation,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check vector index health",
	Long: `Report whether the vector index exists and whether it still matches the CSV
files in the data directory and the configured embedding model.

Exits with code 2 if the index does not exist and 6 if it is stale.`,
	Args: cobra.NoArgs,
	RunE: runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	docs, err := importer.LoadCSVDir(cfg.Output.DataDir)
	if err != nil {
		logger.Warn("cannot read documents, staleness not checked: %v", err)
		docs = nil
	}

	status, err := semantic.Inspect(cfg.Index.Dir, docs, cfg.Embedding.Model)
	exitOnError(err, "checking index")
	if !status.Exists {
		exitWithError(ExitConfigError, "Vector index not found at %s\n\nRun 'atlas index build' to create the index.", cfg.Index.Dir)
	}

	result := buildIndexCheckResult(status, cfg.Embedding.Model, len(docs))
	if humanOutput {
		printIndexCheckHuman(result)
	} else {
		outputJSON(result)
	}

	if status.Stale {
		os.Exit(ExitIndexStale)
	}
	return nil
}

func buildIndexCheckResult(status *semantic.Status, model string, rows int) IndexCheckResult {
	result := IndexCheckResult{
		Status:          "healthy",
		Dir:             status.Dir,
		SourceRows:      rows,
		ConfiguredModel: model,
		IndexSizeBytes:  status.SizeBytes,
		StaleReason:     status.StaleReason,
	}
	if m := status.Manifest; m != nil {
		result.Documents = m.DocumentCount
		result.Model = m.Model
		result.IndexCreated = m.CreatedAt.Format(time.RFC3339)
	}
	if status.Stale {
		result.Status = "stale"
		result.Recommendation = "Run 'atlas index build --force' to rebuild"
	}
	return result
}

func printIndexCheckHuman(r IndexCheckResult) {
	fmt.Printf("Vector Index Status\n")
	fmt.Printf("===================\n\n")
	fmt.Printf("Location: %s\n", r.Dir)
	fmt.Printf("Documents indexed: %d\n", r.Documents)
	fmt.Printf("CSV rows: %d\n", r.SourceRows)
	fmt.Printf("Model: %s\n", r.Model)
	fmt.Printf("Created: %s\n", r.IndexCreated)
	fmt.Printf("Size: %s\n", humanize.Bytes(uint64(r.IndexSizeBytes)))
	fmt.Println()
	if r.StaleReason != "" {
		fmt.Printf("Status: stale (%s)\n", r.StaleReason)
		fmt.Printf("Recommendation: %s\n", r.Recommendation)
	} else {
		fmt.Printf("Status: healthy\n")
	}
}
