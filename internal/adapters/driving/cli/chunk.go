package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/recap-cli/internal/chunker"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

var (
	chunkBudget int
	chunkWords  bool
	chunkModel  string
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Show how a text file splits within a token budget",
	Long: `Splits a text file the way the summariser would and prints the size of
every chunk. No LLM is called.

With --words, or when summary.splitter is "words", the file is split on word
boundaries and sizes are counted in characters instead of tokens.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().IntVarP(&chunkBudget, "budget", "b", 0, "token budget per chunk (default from settings)")
	chunkCmd.Flags().BoolVar(&chunkWords, "words", false, "split on words, counting characters")
	chunkCmd.Flags().StringVar(&chunkModel, "model", "", "model whose tokenizer to use (default from settings)")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	defaults := domain.DefaultAppSettings()
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			defaults = *s
		}
	}
	budget, model := chunkBudget, chunkModel
	if budget == 0 {
		budget = defaults.Summary.TokenBudget
	}
	if model == "" {
		model = defaults.LLM.Model
	}

	var (
		splitter driven.Splitter
		unit     = "tokens"
	)
	if chunkWords || defaults.Summary.Splitter == domain.SplitterWords {
		splitter = chunker.NewWordChunker()
		unit = "chars"
	} else {
		tok, err := tiktoken.New(model)
		if err != nil {
			return err
		}
		splitter = chunker.NewTokenChunker(tok)
	}

	chunks, err := splitter.Split(string(data), budget)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	total, err := splitter.Count(string(data))
	if err != nil {
		return err
	}

	cmd.Printf("%d chunks (budget %d %s, input %d %s)\n", len(chunks), budget, unit, total, unit)
	for i, c := range chunks {
		n, err := splitter.Count(c)
		if err != nil {
			return err
		}
		cmd.Printf("  [%d] %d %s\n", i+1, n, unit)
	}
	return nil
}
