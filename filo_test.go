package gdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiLoPushPopOrder(t *testing.T) {
	f := NewFiLo(2, 2)
	assert.True(t, f.Empty())

	require.NoError(t, f.PushBack(NewCell(0, 0)))
	require.NoError(t, f.PushBack(NewCell(0, 1)))
	assert.Equal(t, 2, f.Size())
	assert.False(t, f.Empty())

	assert.Equal(t, NewCell(0, 0), f.PopHead())
	assert.Equal(t, NewCell(0, 1), f.PopHead())
	assert.True(t, f.Empty())
}

func TestFiLoClear(t *testing.T) {
	f := NewFiLo(2, 2)
	require.NoError(t, f.PushBack(NewCell(0, 0)))
	f.Clear()
	assert.True(t, f.Empty())
	assert.Equal(t, 0, f.Size())
}

func TestFiLoOverflow(t *testing.T) {
	f := NewFiLo(1, 1) // capacity rows*cols+1 = 2
	require.NoError(t, f.PushBack(NewCell(0, 0)))
	require.NoError(t, f.PushBack(NewCell(0, 0)))
	err := f.PushBack(NewCell(0, 0))
	assert.Error(t, err)
}

func TestFiLoPopEmptyPanics(t *testing.T) {
	f := NewFiLo(1, 1)
	assert.Panics(t, func() { f.PopHead() })
}

func TestFiLoWrapsAroundRingBuffer(t *testing.T) {
	f := NewFiLo(1, 1) // capacity 2
	require.NoError(t, f.PushBack(NewCell(0, 0)))
	_ = f.PopHead()
	require.NoError(t, f.PushBack(NewCell(1, 1)))
	require.NoError(t, f.PushBack(NewCell(2, 2)))
	assert.Equal(t, NewCell(1, 1), f.PopHead())
	assert.Equal(t, NewCell(2, 2), f.PopHead())
}
