// Package mcp provides an MCP (Model Context Protocol) server adapter for recap.
// It lets AI assistants describe channels and summarise subtitled videos.
package mcp

import "errors"

// ErrMissingDescriber is returned when the channel describer is not provided.
var ErrMissingDescriber = errors.New("mcp: channel describer is required")

// ErrMissingSummarizer is returned when the collection summarizer is not provided.
var ErrMissingSummarizer = errors.New("mcp: collection summarizer is required")
