package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	coresvc "github.com/custodia-labs/sercha-discover/internal/core/services"
)

func newSettings(t *testing.T) *coresvc.SettingsService {
	t.Helper()
	svc := coresvc.NewSettingsService(memory.NewConfigStore(), nil)
	withServices(t, &Services{Settings: svc, SettingKeys: coresvc.SettingKeys()})
	return svc
}

func TestSettingsShowCmd(t *testing.T) {
	svc := newSettings(t)
	require.NoError(t, svc.SetValue("providers.tavily.api_key", "tvly-1234567890"))

	out, err := run(t, "settings")
	require.NoError(t, err)

	assert.Contains(t, out, "[Providers]")
	assert.Contains(t, out, "Tavily API key: tvly...7890")
	assert.Contains(t, out, "GitHub token: (not set)")
	assert.Contains(t, out, "[Ingest]")
	assert.Contains(t, out, "Configuration is valid.")
	assert.NotContains(t, out, "tvly-1234567890")
}

func TestSettingsListCmd(t *testing.T) {
	newSettings(t)

	out, err := run(t, "settings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "providers.default\n")
	assert.Contains(t, out, "ingest.min_quality\n")
}

func TestSettingsSetCmd(t *testing.T) {
	svc := newSettings(t)

	out, err := run(t, "settings", "set", "providers.default", "SearXNG")
	require.NoError(t, err)
	assert.Contains(t, out, "providers.default updated")

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "searxng", got.Providers.Default)

	_, err = run(t, "settings", "set", "no.such.key", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = run(t, "settings", "set", "providers.default")
	assert.Error(t, err)
}

func TestSettingsWizardCmd(t *testing.T) {
	svc := newSettings(t)

	// Text-only mode, then SearXNG as the external provider.
	out, err := runWithInput(t, "1\n2\nhttp://localhost:8888\n", "settings", "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "Default provider set to: searxng")

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeTextOnly, got.Search.Mode)
	assert.Equal(t, "searxng", got.Providers.Default)
	assert.Equal(t, "http://localhost:8888", got.Providers.SearXNGBaseURL)
}

func TestSettingsWizardCmd_SkipProvider(t *testing.T) {
	svc := newSettings(t)
	before, err := svc.Get()
	require.NoError(t, err)

	out, err := runWithInput(t, "1\n5\n", "settings", "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped.")

	after, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, before.Providers.Default, after.Providers.Default)
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := run(t, "settings", "show")
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = run(t, "settings", "set", "providers.default", "tavily")
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}
