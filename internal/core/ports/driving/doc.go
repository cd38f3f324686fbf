// Package driving defines what the CLI and MCP server call into:
// ChannelDescriber for the fetch, summarise and save flow,
// CollectionSummarizer for caller-supplied videos, and SettingsService.
//
// Implementations live in internal/core/services.
package driving
