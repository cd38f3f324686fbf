package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

var summarizeOverrides summaryOverrides

var summarizeCmd = &cobra.Command{
	Use:   "summarize <items.json>",
	Short: "Summarise a local file of subtitled videos",
	Long: `Summarises a JSON array of videos without calling the subtitle API.
The file uses the same format as the API:

  [{"url": "...", "title": "...", "subtitles": "..."}]

Nothing is saved; the description is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeOverrides.register(summarizeCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	items, err := readItems(args[0])
	if err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := summarizeOverrides.apply(settings); err != nil {
		return err
	}

	pipeline, err := buildPipeline(*settings)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	desc, err := pipeline.Summarizer.SummarizeCollection(cmd.Context(), items)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	cmd.Println(desc.Text)
	return nil
}

func readItems(path string) ([]domain.SourceItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}
	var items []domain.SourceItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}
