package surface

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Create("a", 4, 4)
	require.NoError(t, err)
	b, err := reg.Create("b", 4, 4)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), a.ID)
	assert.Equal(t, uint32(2), b.ID)
}

func TestIDsNotReusedAfterRemoval(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Create("a", 4, 4)
	require.NoError(t, err)
	require.NoError(t, reg.Remove(a.ID))

	b, err := reg.Create("b", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), b.ID, "ids are never reused")
}

func TestCreateRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 4},
		{"zero height", 4, 0},
		{"negative width", -1, 4},
		{"negative height", 4, -2},
		{"width over the limit", maxWindowDim + 1, 4},
		{"height over the limit", 4, maxWindowDim + 1},
		// Dimensions whose product would wrap the allocation size.
		{"huge width", 1 << 61, 1},
		{"huge height", 1, 1 << 61},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			_, err := reg.Create("bad", tt.width, tt.height)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestGetUnknownWindow(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get(42)
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Window 42 not found")
}

func TestRemoveUnknownWindow(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("a", 4, 4)
	require.NoError(t, err)

	err = reg.Remove(99)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, reg.Len(), "registry must be unchanged")
}

func TestListPreservesInsertionOrder(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Create("A", 4, 4)
	require.NoError(t, err)
	b, err := reg.Create("B", 8, 2)
	require.NoError(t, err)
	require.NoError(t, reg.Remove(a.ID))

	infos := reg.List()
	require.Len(t, infos, 1)
	assert.Equal(t, WindowInfo{ID: b.ID, Title: "B", X: 0, Y: 0, Width: 8, Height: 2}, infos[0])
}

func TestListEmptyIsNotNil(t *testing.T) {
	reg := NewRegistry()
	assert.NotNil(t, reg.List())
	assert.Empty(t, reg.List())
}

func TestFirstDrawnSelection(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Create("a", 2, 2)
	require.NoError(t, err)
	b, err := reg.Create("b", 2, 2)
	require.NoError(t, err)

	_, ok := reg.FirstDrawn()
	assert.False(t, ok, "nothing drawn yet")

	require.NoError(t, b.Framebuffer().Blit(0, 0, 1, 1, []byte{1, 2, 3, 4}))
	w, ok := reg.FirstDrawn()
	require.True(t, ok)
	assert.Equal(t, b.ID, w.ID)

	// Once the earlier window is drawn to, it wins by insertion order.
	require.NoError(t, a.Framebuffer().Blit(0, 0, 1, 1, []byte{5, 6, 7, 8}))
	w, ok = reg.FirstDrawn()
	require.True(t, ok)
	assert.Equal(t, a.ID, w.ID)
}

func TestConcurrentCreatesDoNotLoseUpdates(t *testing.T) {
	reg := NewRegistry()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := reg.Create("w", 2, 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, reg.Len())

	seen := make(map[uint32]bool)
	for _, info := range reg.List() {
		assert.False(t, seen[info.ID], "id %d assigned twice", info.ID)
		seen[info.ID] = true
	}
}
