package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/document"
	"github.com/researchatlas/atlas/internal/rag"
)

var (
	askLimit       int
	askShowSources bool
	askLog         string
)

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().IntVar(&askLimit, "k", 0, "Number of documents to retrieve (default llm.top_k)")
	askCmd.Flags().BoolVar(&askShowSources, "show-sources", false, "Include the retrieved documents in the output")
	askCmd.Flags().StringVar(&askLog, "log", "", "Append the question and answer to this JSONL file")
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question from the indexed CSV data",
	Long: `Answer a single question using the documents most similar to it as context.

The vector index must exist; run 'atlas index build' first. Requires the API key
of the configured language model provider (GROQ_API_KEY by default).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// SourceResult is one retrieved document in ask output.
type SourceResult struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
}

// AskResponse is the response for the ask command.
type AskResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Model   string         `json:"model"`
	Sources []SourceResult `json:"sources,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		exitWithError(ExitError, "Question cannot be empty")
	}

	cfg := mustLoadConfig()
	s := mustOpenSession(ctx, cfg, askLog)
	defer s.Close()

	result, err := s.answerer.Answer(ctx, query, rag.WithLimit(askLimit))
	exitOnError(err, "answering")

	resp := AskResponse{Query: result.Query, Answer: result.Answer, Model: result.Model}
	if askShowSources {
		resp.Sources = sourceResults(result.Documents)
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println()
		table := newTable(os.Stdout, "#", "Score", "Source", "Snippet")
		for i, src := range resp.Sources {
			table.Append([]string{
				strconv.Itoa(i + 1),
				fmt.Sprintf("%.3f", src.Score),
				src.Source,
				document.Document{Content: src.Content}.Snippet(SnippetMaxLen),
			})
		}
		table.Render()
	}
	return nil
}

func sourceResults(docs []document.Document) []SourceResult {
	out := make([]SourceResult, len(docs))
	for i, d := range docs {
		out[i] = SourceResult{
			ID:      d.ID,
			Source:  d.Source(),
			Score:   d.Score,
			Content: d.Content,
		}
	}
	return out
}
