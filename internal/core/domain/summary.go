package domain

import "time"

// SourceItem is a single subtitled video returned by the subtitle API.
type SourceItem struct {
	// URL links to the video.
	URL string `json:"url"`

	// Title is the video title.
	Title string `json:"title"`

	// RawText is the full subtitle text.
	RawText string `json:"subtitles"`
}

// Annotation is the summary of one source item, built from its chunk
// summaries joined in chunk order.
type Annotation struct {
	ItemIndex int
	Title     string
	URL       string
	Text      string
}

// Description is the final channel-level summary.
type Description struct {
	// Text is the summary itself.
	Text string

	// Items is the number of source items that contributed an annotation.
	Items int

	// Passes is the number of collection-level reduction passes run.
	Passes int
}

// ChunkType labels which reduction level a chunk belongs to.
type ChunkType string

// Chunk types.
const (
	ChunkTypeSubtitles ChunkType = "SUBTITLES"
	ChunkTypeChannel   ChunkType = "CHANNEL"
)

// String returns the string representation.
func (t ChunkType) String() string {
	return string(t)
}

// SummaryRequest is a single oracle call.
type SummaryRequest struct {
	// Text is the chunk to summarise.
	Text string

	// SystemPrompt instructs the model how to summarise.
	SystemPrompt string

	// PriorContext is the previous chunk summary in chained mode.
	PriorContext string

	// MaxOutputTokens caps the length of the response.
	MaxOutputTokens int

	// Model overrides the oracle's default model when set.
	Model string
}

// SavedDescription is a persisted channel description.
type SavedDescription struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	SavedAt     time.Time `json:"-"`
}

// SavedAtLayout is the timestamp layout used in saved description files.
const SavedAtLayout = "02-01-2006 15:04:05"
