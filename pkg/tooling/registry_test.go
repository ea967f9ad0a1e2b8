package tooling

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndFind(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(newTool(t, 3, TypeEndMill, 6)))
	require.NoError(t, r.Add(newTool(t, 1, TypeDrill, 5)))
	require.NoError(t, r.Add(newTool(t, 7, TypeEndMill, 10)))

	tool, ok := r.Find(1)
	require.True(t, ok)
	assert.Equal(t, TypeDrill, tool.Type())

	_, ok = r.Find(42)
	assert.False(t, ok)

	assert.Equal(t, 3, r.Len())
	entries := r.FindAllCuttingTools()
	require.Len(t, entries, 3)
	assert.Equal(t, []int{3, 1, 7}, []int{entries[0].Number, entries[1].Number, entries[2].Number})
	assert.Equal(t, "6 mm HSS End Mill", entries[0].Title)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(newTool(t, 3, TypeEndMill, 6)))

	err := r.Add(newTool(t, 3, TypeDrill, 5))
	assert.ErrorIs(t, err, ErrDuplicateToolNumber)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, TypeEndMill, r.CutterType(3))

	err = r.Add(newTool(t, 0, TypeDrill, 5))
	assert.ErrorIs(t, err, ErrInvalidToolNumber)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryQueries(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(newTool(t, 2, TypeDrill, 5)))
	require.NoError(t, r.Add(newTool(t, 5, TypeChamfer, 10)))
	require.NoError(t, r.Add(newTool(t, 4, TypeChamfer, 12)))

	n, ok := r.FindFirstByType(TypeChamfer)
	require.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = r.FindFirstByType(TypeBallEndMill)
	assert.False(t, ok)

	assert.Equal(t, TypeUndefined, r.CutterType(99))
	assert.Equal(t, MaterialUndefined, r.CutterMaterial(99))
	assert.Equal(t, MaterialHSS, r.CutterMaterial(2))
	assert.Equal(t, 6, r.NextFreeNumber())
	assert.Equal(t, 1, NewRegistry(nil).NextFreeNumber())
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(newTool(t, 1, TypeDrill, 5)))
	require.NoError(t, r.Add(newTool(t, 2, TypeDrill, 6)))

	assert.True(t, r.Remove(1))
	assert.False(t, r.Remove(1))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, r.Tools()[0].Number())

	// The number is free again.
	require.NoError(t, r.Add(newTool(t, 1, TypeEndMill, 6)))
}

func TestRegistryConcurrentAdd(t *testing.T) {
	r := NewRegistry(nil)
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- r.Add(newTool(t, n%5+1, TypeDrill, 5))
		}(i)
	}
	wg.Wait()
	close(errs)

	var rejected int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrDuplicateToolNumber)
			rejected++
		}
	}
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 15, rejected)
}
