package driven

// Tokenizer maps text to model token ids and back.
// Decode(Encode(text)) must reproduce text exactly.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(tokens []int) (string, error)

	// Name identifies the encoding, e.g. "cl100k_base".
	Name() string
}

// Splitter breaks text into chunks that fit a token budget.
type Splitter interface {
	// Split returns the chunks of text in order. Empty text yields no chunks.
	// A non-positive budget fails with domain.ErrInvalidBudget.
	Split(text string, budget int) ([]string, error)

	// Count returns the size of text in the splitter's unit.
	Count(text string) (int, error)
}
