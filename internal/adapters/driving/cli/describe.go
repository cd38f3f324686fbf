package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
)

var (
	describeLimit       int
	describeSaveTo      string
	describeDestination string
	describeDryRun      bool
	describeJSON        bool
	describeOverrides   summaryOverrides
)

var describeCmd = &cobra.Command{
	Use:   "describe [channel-id]",
	Short: "Describe a channel from its video subtitles",
	Long: `Fetches the channel's videos from the subtitle API, summarises them and
saves the resulting description.

The channel ID defaults to the CHANNEL_ID environment variable.

Save targets:
  file      - JSON array file (destination is a path)
  sqlite    - SQLite database (destination is the database file)
  postgres  - PostgreSQL (destination is a connection string)
  mongodb   - MongoDB (destination is a connection URI)
  gcs       - Google Cloud Storage (destination is gs://bucket/object.json)
  memory    - kept in process only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().IntVarP(&describeLimit, "limit", "n", 0,
		fmt.Sprintf("number of videos to fetch (default from settings, %d)", domain.DefaultFetchLimit))
	describeCmd.Flags().StringVar(&describeSaveTo, "save-to", "", "save target (default from settings, file)")
	describeCmd.Flags().StringVar(&describeDestination, "destination", "",
		fmt.Sprintf("save destination (default from settings, %s)", domain.DefaultDestination))
	describeCmd.Flags().BoolVar(&describeDryRun, "dry-run", false, "print the description without saving it")
	describeCmd.Flags().BoolVar(&describeJSON, "json", false, "output the result as JSON")
	describeOverrides.register(describeCmd)
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	channelID := settingsService.DefaultChannelID()
	if len(args) > 0 {
		channelID = args[0]
	}
	if strings.TrimSpace(channelID) == "" {
		return errors.New("channel id required: pass it as an argument or set CHANNEL_ID")
	}

	if err := describeOverrides.apply(settings); err != nil {
		return err
	}

	pipeline, err := buildPipeline(*settings)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	result, err := pipeline.Describer.Describe(cmd.Context(), driving.DescribeRequest{
		ChannelID:   channelID,
		Limit:       describeLimit,
		SaveTo:      domain.SaveTarget(describeSaveTo),
		Destination: describeDestination,
		DryRun:      describeDryRun,
	})
	if err != nil {
		return fmt.Errorf("describe failed: %w", err)
	}

	if describeJSON {
		return outputDescribeJSON(cmd, result)
	}

	cmd.Println(result.Description.Text)
	cmd.Println()
	cmd.Printf("Videos: %d, passes: %d, took %s\n",
		result.Items, result.Description.Passes, result.Duration.Round(time.Millisecond))
	if result.SavedTo != "" {
		cmd.Printf("Saved to %s\n", result.SavedTo)
	}
	return nil
}

type describeOutput struct {
	ChannelID   string `json:"channel_id"`
	Description string `json:"description"`
	Items       int    `json:"items"`
	Passes      int    `json:"passes"`
	SavedTo     string `json:"saved_to,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

func outputDescribeJSON(cmd *cobra.Command, result *driving.DescribeResult) error {
	data, err := json.MarshalIndent(describeOutput{
		ChannelID:   result.ChannelID,
		Description: result.Description.Text,
		Items:       result.Items,
		Passes:      result.Description.Passes,
		SavedTo:     result.SavedTo,
		DurationMS:  result.Duration.Milliseconds(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
