package generator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildr-dev/buildr/internal/types"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Types())
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("banner", Triple{
		HTML: func(c *types.Component) string { return "<div>banner</div>" },
	})

	triple, ok := r.Lookup("banner")
	require.True(t, ok)
	assert.Equal(t, "<div>banner</div>", triple.HTML(&types.Component{}))

	// Missing generator slots are filled so callers never nil-check.
	assert.NotNil(t, triple.CSS)
	assert.NotNil(t, triple.JS)
	assert.Equal(t, "", triple.CSS(&types.Component{}))
	assert.Equal(t, "", triple.JS(&types.Component{}))

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("banner", Triple{HTML: func(*types.Component) string { return "v1" }})
	r.Register("banner", Triple{HTML: func(*types.Component) string { return "v2" }})

	triple, ok := r.Lookup("banner")
	require.True(t, ok)
	assert.Equal(t, "v2", triple.HTML(&types.Component{}))
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_TypesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.Register(name, Triple{})
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Types())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := Default()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			r.Register(fmt.Sprintf("custom-%d", n), Triple{})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("button")
			_ = r.Types()
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, r.Count(), 10)
}

func TestDefault_HasBuiltins(t *testing.T) {
	r := Default()

	for _, name := range []string{
		"text", "heading", "button", "image", "navbar", "hero",
		"footer", "input", "textarea", "form", "container", "grid", "card",
	} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, "builtin %q should be registered", name)
	}
}
