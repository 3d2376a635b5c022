package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui"
)

func TestTUICmd_Flags(t *testing.T) {
	provider := tuiCmd.Flags().Lookup("provider")
	require.NotNil(t, provider)
	assert.Equal(t, "p", provider.Shorthand)
	assert.NotNil(t, tuiCmd.Flags().Lookup("no-external"))
	assert.Contains(t, tuiCmd.Long, "Mark an external hit")
}

func TestTUICmd_RequiresQueryService(t *testing.T) {
	withServices(t, &Services{})

	_, err := run(t, "tui")
	assert.ErrorIs(t, err, tui.ErrMissingQueryService)
}
