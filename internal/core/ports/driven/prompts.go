package driven

// PromptStore provides access to the summarisation system prompts.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt text for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptSubtitleSummary instructs the model to summarise a chunk of
	// video subtitles.
	PromptSubtitleSummary = "subtitle_summary"

	// PromptChannelSummary instructs the model to condense video
	// annotations into a channel description.
	PromptChannelSummary = "channel_summary"
)

// PromptNames returns all well-known prompt names.
func PromptNames() []string {
	return []string{PromptSubtitleSummary, PromptChannelSummary}
}
