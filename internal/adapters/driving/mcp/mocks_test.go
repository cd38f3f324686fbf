package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
)

// mockDescriber is a mock implementation of driving.ChannelDescriber.
type mockDescriber struct {
	result *driving.DescribeResult
	err    error
	got    driving.DescribeRequest
}

func (m *mockDescriber) Describe(_ context.Context, req driving.DescribeRequest) (*driving.DescribeResult, error) {
	m.got = req
	return m.result, m.err
}

// mockSummarizer is a mock implementation of driving.CollectionSummarizer.
type mockSummarizer struct {
	desc  *domain.Description
	err   error
	items []domain.SourceItem
}

func (m *mockSummarizer) SummarizeCollection(_ context.Context, items []domain.SourceItem) (*domain.Description, error) {
	m.items = items
	return m.desc, m.err
}

// mockPromptStore is a mock implementation of driven.PromptStore.
type mockPromptStore map[string]string

func (m mockPromptStore) Load(name string) (string, error) {
	text, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return text, nil
}

func (m mockPromptStore) Reload() {}

func validPorts() *Ports {
	return &Ports{
		Describer:  &mockDescriber{},
		Summarizer: &mockSummarizer{},
	}
}
