package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/storage"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Show only the most recent entries (0 for all)")
}

var historyCmd = &cobra.Command{
	Use:   "history <log-file>",
	Short: "Show questions and answers recorded with --log",
	Long: `Show the transcript written by 'atlas ask --log' or 'atlas chat --log',
most recent entries last.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

// HistoryResponse is the response for the history command.
type HistoryResponse struct {
	Path    string            `json:"path"`
	Total   int               `json:"total"`
	Entries []TranscriptEntry `json:"entries"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := config.ExpandPath(args[0])
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitDataError, "Transcript not found: %s", path)
	}

	resp, err := loadHistory(path, historyLimit)
	exitOnError(err, "reading transcript")

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	if resp.Total == 0 {
		fmt.Println("No entries.")
		return nil
	}
	table := newTable(os.Stdout, "#", "When", "Model", "Question", "Answer")
	first := resp.Total - len(resp.Entries)
	for i, e := range resp.Entries {
		table.Append([]string{
			strconv.Itoa(first + i + 1),
			humanize.Time(e.Time),
			e.Model,
			truncateString(e.Query, SubfieldMaxLen),
			truncateString(e.Answer, SnippetMaxLen),
		})
	}
	table.Render()
	if first > 0 {
		fmt.Printf("\n%d earlier entries not shown (use --limit 0 for all)\n", first)
	}
	return nil
}

// loadHistory reads a transcript and keeps the last limit entries.
func loadHistory(path string, limit int) (*HistoryResponse, error) {
	entries, err := storage.ReadJSONL[TranscriptEntry](path)
	if err != nil {
		return nil, err
	}
	resp := &HistoryResponse{Path: path, Total: len(entries), Entries: entries}
	if limit > 0 && len(entries) > limit {
		resp.Entries = entries[len(entries)-limit:]
	}
	if resp.Entries == nil {
		resp.Entries = []TranscriptEntry{}
	}
	return resp, nil
}
