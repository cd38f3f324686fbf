package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
)

// mockSettingsService is an in-memory driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	channelID   string
	validateErr error
	llmErr      error
	getErr      error
}

var _ driving.SettingsService = (*mockSettingsService)(nil)

func newMockSettings() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Output = domain.OutputSettings{SaveTo: domain.SaveTargetMemory, Destination: "out"}
	return &mockSettingsService{settings: s}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetSummary(summary domain.SummarizerSettings) error {
	m.settings.Summary = summary
	return nil
}

func (m *mockSettingsService) SetFetch(fetch domain.FetchSettings) error {
	m.settings.Fetch = fetch
	return nil
}

func (m *mockSettingsService) SetOutput(output domain.OutputSettings) error {
	m.settings.Output = output
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.llmErr }
func (m *mockSettingsService) DefaultChannelID() string        { return m.channelID }

// echoLLM replies with the upper-cased user message.
type echoLLM struct {
	calls int
}

func (l *echoLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.calls++
	return strings.ToUpper(messages[len(messages)-1].Content), nil
}

func (l *echoLLM) ModelName() string          { return "echo" }
func (l *echoLLM) Ping(context.Context) error { return nil }
func (l *echoLLM) Close() error               { return nil }

// stubFetcher returns fixed items for any channel.
type stubFetcher struct {
	items   []domain.SourceItem
	channel string
	limit   int
}

func (f *stubFetcher) FetchItems(_ context.Context, channelID string, limit int) ([]domain.SourceItem, error) {
	f.channel = channelID
	f.limit = limit
	return f.items, nil
}

// saveState restores the package-level services when the test ends.
func saveState(t *testing.T) {
	t.Helper()
	origSettings, origPrompts, origOptions := settingsService, promptStore, appOptions
	origHistory, origMCP := openHistory, newMCPServer
	t.Cleanup(func() {
		settingsService, promptStore, appOptions = origSettings, origPrompts, origOptions
		openHistory, newMCPServer = origHistory, origMCP
	})
}

// execute runs the root command with args and stdin and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags() {
	verbose = false
	describeLimit, describeSaveTo, describeDestination = 0, "", ""
	describeDryRun, describeJSON = false, false
	describeOverrides.reset()
	summarizeOverrides.reset()
	chunkBudget, chunkWords, chunkModel = 0, false, ""
	historyDB, historyLimit, historyJSON = "", 20, false
	versionShort, versionJSON = false, false
	_ = mcpServeCmd.Flags().Set("port", "0")
}
