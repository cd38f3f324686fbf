// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Gemini content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the LLM model to use (default: gemini-1.5-flash).
	Model string
}

// LLMService provides chat completions using Gemini.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Chat conducts a multi-turn conversation. The final message must come
// from the user; earlier turns are sent as chat history.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	conv, err := buildConversation(messages)
	if err != nil {
		return "", err
	}

	name := s.model
	if opts.Model != "" {
		name = opts.Model
	}
	model := s.client.GenerativeModel(name)
	if conv.system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(conv.system)}}
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		model.SetTemperature(float32(opts.Temperature))
	}

	cs := model.StartChat()
	cs.History = conv.history

	resp, err := cs.SendMessage(ctx, genai.Text(conv.prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp)
}

type conversation struct {
	system  string
	history []*genai.Content
	prompt  string
}

// buildConversation maps chat messages onto Gemini's system instruction,
// history and final prompt. Assistant turns before the first user turn are
// folded into the system instruction, since history must open with the user.
func buildConversation(messages []driven.ChatMessage) (conversation, error) {
	var (
		conv   conversation
		system []string
	)

	last := -1
	for i, msg := range messages {
		if msg.Role == driven.RoleUser {
			last = i
		}
	}
	if last < 0 {
		return conv, errors.New("gemini: conversation has no user message")
	}

	for i, msg := range messages {
		switch {
		case i == last:
			conv.prompt = msg.Content
		case msg.Role == driven.RoleSystem:
			system = append(system, msg.Content)
		case msg.Role == driven.RoleAssistant && len(conv.history) == 0:
			system = append(system, "Previous summary:\n"+msg.Content)
		case msg.Role == driven.RoleAssistant:
			conv.history = append(conv.history, textContent(roleModel, msg.Content))
		default:
			conv.history = append(conv.history, textContent(roleUser, msg.Content))
		}
	}
	conv.system = strings.Join(system, "\n\n")
	return conv, nil
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []genai.Part{genai.Text(text)}}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: response has no text")
	}
	return b.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the first available model.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.client.ListModels(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client connection.
func (s *LLMService) Close() error {
	return s.client.Close()
}
