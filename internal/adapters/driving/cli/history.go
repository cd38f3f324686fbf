package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// historyStore lists saved descriptions.
type historyStore interface {
	driven.DescriptionHistory
	Close() error
}

var (
	historyDB    string
	historyLimit int
	historyJSON  bool

	openHistory = func(path string) (historyStore, error) {
		return sqlite.NewStore(path)
	}
)

var historyCmd = &cobra.Command{
	Use:   "history [channel-id]",
	Short: "List descriptions saved to SQLite",
	Long: `Lists descriptions written by the sqlite save target, newest first.

The database defaults to the sqlite destination in settings, or
~/.recap/data/descriptions.db.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "", "SQLite database path")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of descriptions (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	var channelID string
	if len(args) > 0 {
		channelID = args[0]
	}

	store, err := openHistory(historyPath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	saved, err := store.List(cmd.Context(), channelID, historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		data, err := json.MarshalIndent(saved, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(saved) == 0 {
		cmd.Println("No saved descriptions.")
		return nil
	}
	for i, d := range saved {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("[%s] %s\n", d.SavedAt.Local().Format("2006-01-02 15:04:05"), d.ID)
		cmd.Printf("  %s\n", d.Description)
	}
	return nil
}

// historyPath resolves --db, then the configured sqlite destination.
// Empty lets the store pick its default path.
func historyPath() string {
	if historyDB != "" {
		return historyDB
	}
	if settingsService == nil {
		return ""
	}
	settings, err := settingsService.Get()
	if err != nil || settings.Output.SaveTo != domain.SaveTargetSQLite {
		return ""
	}
	return settings.Output.Destination
}
