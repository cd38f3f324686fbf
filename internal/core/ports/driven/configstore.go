package driven

// ConfigStore holds persisted settings addressed by dot-notation keys
// such as "summary.token_budget". The settings service is its only reader.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" when the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 when the key is missing or not a whole number.
	GetInt(key string) int

	// GetFloat converts integers and returns 0 when the key is missing.
	GetFloat(key string) float64

	// Set stores a value and persists it before returning.
	Set(key string, value any) error

	// Path names the backing file, or ":memory:".
	Path() string
}
