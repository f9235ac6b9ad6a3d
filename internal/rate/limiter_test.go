package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_BurstThenDeny(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 3})

	allowed := 0
	for i := 0; i < 10; i++ {
		if m.Allow("data.moa.gov.tw") {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestManager_KeysAreIndependent(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 1})

	assert.True(t, m.Allow("a"))
	assert.False(t, m.Allow("a"))
	assert.True(t, m.Allow("b"))
	assert.Same(t, m.Limiter("a"), m.Limiter("a"))
}

func TestManager_ZeroRateIsUnlimited(t *testing.T) {
	m := NewManager(Config{})
	for i := 0; i < 100; i++ {
		require.True(t, m.Allow("k"))
	}
}

func TestManager_WaitRefills(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 100, Burst: 1})
	require.True(t, m.Allow("k"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, m.Wait(ctx, "k"))
}

func TestManager_WaitCanceled(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 0.01, Burst: 1})
	require.True(t, m.Allow("k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Wait(ctx, "k"))
}
