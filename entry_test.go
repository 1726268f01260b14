package addrcache_test

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/addrcache"
)

func TestNewEntry(t *testing.T) {
	addr := netip.MustParseAddr("10.1.2.3")
	before := time.Now()

	e, err := addrcache.NewEntry(addr, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, addr, e.Value())
	assert.False(t, e.IsExpired())
	assert.False(t, e.ExpireAt().Before(before.Add(time.Hour)))
	assert.False(t, e.ExpireAt().After(time.Now().Add(time.Hour)))
}

func TestNewEntry_invalid(t *testing.T) {
	_, err := addrcache.NewEntry(netip.Addr{}, time.Hour)
	assert.True(t, errors.Is(err, addrcache.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "value is absent")

	_, err = addrcache.NewEntry(netip.MustParseAddr("::1"), 0)
	assert.True(t, errors.Is(err, addrcache.ErrInvalidArgument))

	_, err = addrcache.NewEntry("", time.Second)
	assert.True(t, errors.Is(err, addrcache.ErrInvalidArgument))
}

func TestEntry_IsExpired(t *testing.T) {
	e, err := addrcache.NewEntry("198.51.100.7", 10*time.Millisecond)
	require.NoError(t, err)

	assert.False(t, e.IsExpired())
	time.Sleep(15 * time.Millisecond)
	assert.True(t, e.IsExpired())
}

func TestEntry_equality(t *testing.T) {
	addr := netip.MustParseAddr("2001:db8::1")

	e1, err := addrcache.NewEntry(addr, time.Hour)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	e2, err := addrcache.NewEntry(addr, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, e1.Value(), e2.Value())
	assert.NotEqual(t, e1.ExpireAt(), e2.ExpireAt())
}
