package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/chat"
	"github.com/researchatlas/atlas/internal/logger"
)

var (
	chatShowSources bool
	chatLog         string
)

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&chatShowSources, "show-sources", false, "Print the retrieved documents under each answer")
	chatCmd.Flags().StringVar(&chatLog, "log", "", "Append every question and answer to this JSONL file")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the indexed CSV data interactively",
	Long: `Start an interactive question-answering session over the CSV data directory.

The vector index must exist; run 'atlas index build' first. Each question is
answered independently; there is no conversation memory. Type 'exit' or send EOF to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	cfg := mustLoadConfig()
	s := mustOpenSession(ctx, cfg, chatLog)
	defer s.Close()

	greeting := fmt.Sprintf("Research Assistant (%s). Type '%s' to quit.", cfg.LLM.Model, chat.ExitCommand)
	loop := chat.NewLoop(s.answerer, os.Stdin, os.Stdout,
		chat.WithGreeting(greeting),
		chat.WithSources(chatShowSources),
	)
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		exitWithError(ExitError, "reading input: %v", err)
	}
	logger.Debug("chat %s after %d questions", loop.State(), loop.Asked())
	return nil
}
