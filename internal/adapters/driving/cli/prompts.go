package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and reset the summarisation prompts",
	Long: `The system prompts live as text files under ~/.recap/prompts/.
Edit them to change how videos and channels are summarised.`,
	RunE: runPromptsList,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts and their files",
	RunE:  runPromptsList,
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptsShow,
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset [name...]",
	Short: "Restore prompts to their defaults",
	Long:  `Restores the named prompts, or every prompt when no name is given.`,
	RunE:  runPromptsReset,
}

func init() {
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsResetCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsList(cmd *cobra.Command, _ []string) error {
	if promptStore == nil {
		return errors.New("prompt store not configured")
	}
	for _, name := range driven.PromptNames() {
		cmd.Printf("%-18s %s\n", name, promptStore.Path(name))
	}
	return nil
}

func runPromptsShow(cmd *cobra.Command, args []string) error {
	if promptStore == nil {
		return errors.New("prompt store not configured")
	}
	text, err := promptStore.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading prompt %s: %w", args[0], err)
	}
	cmd.Println(text)
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	if promptStore == nil {
		return errors.New("prompt store not configured")
	}
	if err := promptStore.Reset(args...); err != nil {
		return fmt.Errorf("resetting prompts: %w", err)
	}
	if len(args) == 0 {
		cmd.Println("All prompts restored to defaults.")
	} else {
		cmd.Printf("Restored: %v\n", args)
	}
	return nil
}
