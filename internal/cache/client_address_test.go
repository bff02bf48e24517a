package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// fakeClock is a manually-advanced clock.Clock for deterministic ttl tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }
func (f *fakeClock) Until(t time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	if d := t.Sub(f.now); d > 0 {
		return d
	}
	return 0
}
func (f *fakeClock) IsExpired(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return f.now.After(t)
}

type countingProvider struct {
	calls int
	addr  *care.Address
}

func (p *countingProvider) ClientAddress(ctx context.Context, clientID care.ID) (*care.Address, error) {
	p.calls++
	return p.addr, nil
}

func (p *countingProvider) GetClientForEVV(ctx context.Context, clientID care.ID) (*providers.ClientEVVView, error) {
	return nil, care.NewNotFoundError("client.id", clientID.String())
}

func TestClientAddressCache_ServesFromCacheWithinTTL(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	inner := &countingProvider{addr: &care.Address{Line1: "1 Main St", City: "Austin", State: "TX"}}
	c := New(inner, clk, 5*time.Minute)

	clientID := care.NewID()
	_, err := c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)
	_, err = c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())
}

func TestClientAddressCache_RefetchesAfterTTLExpires(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	inner := &countingProvider{addr: &care.Address{Line1: "1 Main St", City: "Austin", State: "TX"}}
	c := New(inner, clk, time.Minute)

	clientID := care.NewID()
	_, err := c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)

	clk.now = clk.now.Add(2 * time.Minute)

	_, err = c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestClientAddressCache_InvalidateForcesRefetch(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	inner := &countingProvider{addr: &care.Address{Line1: "1 Main St", City: "Austin", State: "TX"}}
	c := New(inner, clk, 5*time.Minute)

	clientID := care.NewID()
	_, err := c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)

	c.Invalidate(clientID)
	_, err = c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestClientAddressCache_ZeroTTLAlwaysPassesThrough(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	inner := &countingProvider{addr: &care.Address{Line1: "1 Main St", City: "Austin", State: "TX"}}
	c := New(inner, clk, 0)

	clientID := care.NewID()
	_, err := c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)
	_, err = c.ClientAddress(context.Background(), clientID)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, c.Len())
}
