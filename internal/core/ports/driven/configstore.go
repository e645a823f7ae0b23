package driven

// ConfigStore is the flat key/value view of ragvault's settings file.
// Keys use dot notation matching the TOML tables, e.g. "retrieval.top_k".
// The typed getters return the zero value for a missing key or a value of
// another type; callers that must tell those apart use Get.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat widens integer values.
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set writes through: file-backed stores persist before returning.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path is the backing file, or ":memory:".
	Path() string
}
