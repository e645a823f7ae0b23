package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("paths.docs_dir", "corpus"))
	require.NoError(t, store.Set("paths.docs_dir", "notes"))

	val, ok := store.Get("paths.docs_dir")
	assert.True(t, ok)
	assert.Equal(t, "notes", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"chunking.size": int64(1200), "llm.provider": "ollama"}
	store := NewConfigStore(seed)

	require.NoError(t, store.Set("llm.provider", "openai"))

	assert.Equal(t, 1200, store.GetInt("chunking.size"))
	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, "ollama", seed["llm.provider"], "seed map must not be aliased")
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", i)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
}
