package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	h := NewHandle()

	require.NoError(t, r.Register("scan-1", h))
	assert.True(t, h.Live())
	assert.True(t, r.IsActive("scan-1"))
	assert.Equal(t, 1, r.Count())

	assert.ErrorIs(t, r.Register("scan-1", NewHandle()), ErrAlreadyRegistered)

	assert.False(t, h.IsCancelled())
	assert.True(t, r.Signal("scan-1"))
	assert.True(t, h.IsCancelled())
	assert.True(t, r.Signal("scan-1"), "signalling twice is harmless")
	assert.False(t, r.Signal("scan-unknown"))

	r.Deregister("scan-1")
	assert.False(t, h.Live())
	assert.False(t, r.IsActive("scan-1"))
	assert.Zero(t, r.Count())
	r.Deregister("scan-1")

	require.NoError(t, r.Register("scan-1", NewHandle()), "id can be registered again once dead")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "scan-" + string(rune('a'+i%26))
			_ = r.Register(id, NewHandle())
			r.Signal(id)
			r.IsActive(id)
			r.Deregister(id)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, r.Count())
}
