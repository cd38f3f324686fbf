// Package services holds the summarisation core. The Summarizer walks the
// chunk hierarchy against a token budget; DescribeService wraps it with
// fetching and saving; SettingsService layers environment overrides on
// the config store.
package services
