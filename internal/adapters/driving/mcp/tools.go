package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
)

// DescribeChannelInput is the input schema for the describe_channel tool.
type DescribeChannelInput struct {
	ChannelID string `json:"channel_id" jsonschema:"the channel to describe"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of videos to fetch (default from settings)"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"return the description without saving it"`
}

// DescribeChannelOutput is the output schema for the describe_channel tool.
type DescribeChannelOutput struct {
	ChannelID   string `json:"channel_id"`
	Description string `json:"description"`
	Items       int    `json:"items"`
	Passes      int    `json:"passes"`
	SavedTo     string `json:"saved_to,omitempty"`
}

// ItemInput is one subtitled video passed to summarize_items.
type ItemInput struct {
	URL       string `json:"url,omitempty" jsonschema:"the video URL"`
	Title     string `json:"title,omitempty" jsonschema:"the video title"`
	Subtitles string `json:"subtitles" jsonschema:"the full subtitle text"`
}

// SummarizeItemsInput is the input schema for the summarize_items tool.
type SummarizeItemsInput struct {
	Items []ItemInput `json:"items" jsonschema:"the videos to summarise into one description"`
}

// SummarizeItemsOutput is the output schema for the summarize_items tool.
type SummarizeItemsOutput struct {
	Description string `json:"description"`
	Items       int    `json:"items"`
	Passes      int    `json:"passes"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "describe_channel",
		Description: "Fetch a channel's subtitled videos and summarise them into one description",
	}, s.handleDescribeChannel)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_items",
		Description: "Summarise the given subtitled videos into one description",
	}, s.handleSummarizeItems)
}

func (s *Server) handleDescribeChannel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DescribeChannelInput,
) (*mcp.CallToolResult, DescribeChannelOutput, error) {
	s.log.Info("mcp.describe_channel", "channel_id", input.ChannelID, "limit", input.Limit, "dry_run", input.DryRun)

	result, err := s.ports.Describer.Describe(ctx, driving.DescribeRequest{
		ChannelID: input.ChannelID,
		Limit:     input.Limit,
		DryRun:    input.DryRun,
	})
	if err != nil {
		return nil, DescribeChannelOutput{}, err
	}

	return nil, DescribeChannelOutput{
		ChannelID:   result.ChannelID,
		Description: result.Description.Text,
		Items:       result.Items,
		Passes:      result.Description.Passes,
		SavedTo:     result.SavedTo,
	}, nil
}

func (s *Server) handleSummarizeItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeItemsInput,
) (*mcp.CallToolResult, SummarizeItemsOutput, error) {
	if len(input.Items) == 0 {
		return nil, SummarizeItemsOutput{}, errors.New("items must not be empty")
	}
	s.log.Info("mcp.summarize_items", "items", len(input.Items))

	items := make([]domain.SourceItem, len(input.Items))
	for i, it := range input.Items {
		items[i] = domain.SourceItem{URL: it.URL, Title: it.Title, RawText: it.Subtitles}
	}

	desc, err := s.ports.Summarizer.SummarizeCollection(ctx, items)
	if err != nil {
		return nil, SummarizeItemsOutput{}, err
	}

	return nil, SummarizeItemsOutput{
		Description: desc.Text,
		Items:       desc.Items,
		Passes:      desc.Passes,
	}, nil
}
