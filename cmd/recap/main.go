// Command recap summarises a channel's video subtitles into one description.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/recap-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recap-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/recap-cli/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	promptStore, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	cli.SetVersion(version)
	cli.SetSettingsService(services.NewSettingsService(configStore, ai.NewConfigValidator()))
	cli.SetPromptStore(promptStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}
