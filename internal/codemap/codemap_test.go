package codemap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/ir"
)

func TestEagerAllocateResolve(t *testing.T) {
	c := New()
	fn := &ir.CompiledFunction{NumSlots: 2}
	h := c.AllocateEager(fn)
	got, err := c.Resolve(h)
	require.NoError(t, err)
	require.Same(t, fn, got)
}

func TestLazyCompilesOnce(t *testing.T) {
	c := New()
	var calls int
	var mu sync.Mutex
	h := c.AllocateLazy(func() (*ir.CompiledFunction, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &ir.CompiledFunction{NumSlots: 1}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Resolve(h)
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, calls)
}

func TestLen(t *testing.T) {
	c := New()
	require.Equal(t, 0, c.Len())
	c.AllocateEager(&ir.CompiledFunction{})
	require.Equal(t, 1, c.Len())
}
