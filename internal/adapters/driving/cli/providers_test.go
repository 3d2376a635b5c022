package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvidersOptionsCmd(t *testing.T) {
	withServices(t, &Services{Query: &mockQueryService{}})

	out, err := run(t, "providers", "options")
	require.NoError(t, err)

	assert.Contains(t, out, "Default: searxng  Fallback: tavily")
	assert.Contains(t, out, "filters: engines, time range, language")
	assert.Contains(t, out, "engines: duckduckgo, bing")
	assert.Contains(t, out, "github")
	assert.Contains(t, out, "not configured")
}

func TestProvidersStatusCmd(t *testing.T) {
	q := &mockQueryService{}
	withServices(t, &Services{Query: q})

	out, err := run(t, "providers", "status")
	require.NoError(t, err)
	assert.False(t, q.refresh)
	assert.Contains(t, out, "Healthy: 1/2")
	assert.Contains(t, out, "120ms")
	assert.Contains(t, out, "breaker open")
	assert.Contains(t, out, "401 unauthorized")

	_, err = run(t, "providers", "status", "--refresh")
	require.NoError(t, err)
	assert.True(t, q.refresh)
}

func TestProvidersStatusCmd_JSON(t *testing.T) {
	withServices(t, &Services{Query: &mockQueryService{}})

	out, err := run(t, "providers", "status", "--json")
	require.NoError(t, err)

	var decoded struct {
		HealthyProviderCount int `json:"healthyProviderCount"`
		Providers            []struct {
			Name    string `json:"name"`
			Healthy bool   `json:"healthy"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.HealthyProviderCount)
	require.Len(t, decoded.Providers, 2)
	assert.True(t, decoded.Providers[0].Healthy)
	assert.False(t, decoded.Providers[1].Healthy)
}

func TestProvidersCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := run(t, "providers", "options")
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = run(t, "providers", "status")
	assert.ErrorIs(t, err, errNotConfigured)
}
