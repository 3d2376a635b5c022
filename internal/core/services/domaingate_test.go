package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainGate_SpacesSameHost(t *testing.T) {
	gate := NewDomainGate(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, gate.Wait(ctx, "example.com"))
	require.NoError(t, gate.Wait(ctx, "EXAMPLE.com"))
	require.NoError(t, gate.Wait(ctx, "example.com"))

	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}

func TestDomainGate_HostsIndependent(t *testing.T) {
	gate := NewDomainGate(time.Second)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, gate.Wait(ctx, "a.example"))
	require.NoError(t, gate.Wait(ctx, "b.example"))
	require.NoError(t, gate.Wait(ctx, "c.example"))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDomainGate_ContextCancelled(t *testing.T) {
	gate := NewDomainGate(time.Hour)
	require.NoError(t, gate.Wait(context.Background(), "slow.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, gate.Wait(ctx, "slow.example"))
}

func TestDomainGate_Disabled(t *testing.T) {
	gate := NewDomainGate(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, gate.Wait(context.Background(), "example.com"))
	}
}
