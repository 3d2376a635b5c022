package driven

import "time"

// ConfigStore is a flat key/value view of the settings file, keyed by
// dotted paths such as "providers.searxng.base_url". Typed getters return
// the zero value for missing keys and for values of another type.
type ConfigStore interface {
	// Get reports whether key is set, so an explicit false or zero can be
	// told apart from a missing key.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetFloat widens integers.
	GetFloat(key string) float64

	// GetDuration parses Go duration strings such as "750ms".
	GetDuration(key string) time.Duration

	GetStringSlice(key string) []string

	// Set changes a value in memory. Save writes it out.
	Set(key string, value any) error
	Save() error

	// Load re-reads the backing file, replacing in-memory values.
	Load() error

	Path() string
}
