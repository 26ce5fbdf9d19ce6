package ordered

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_InOrder(t *testing.T) {
	b := NewBuffer[string](3)

	ready := b.Push(0, "a")
	require.Len(t, ready, 1)
	assert.Equal(t, Item[string]{Index: 0, Value: "a"}, ready[0])
	assert.Equal(t, 1, b.Next())
	assert.Equal(t, 0, b.Pending())
}

func TestBuffer_HoldsUntilPredecessor(t *testing.T) {
	b := NewBuffer[int](4)

	assert.Empty(t, b.Push(2, 20))
	assert.Empty(t, b.Push(1, 10))
	assert.Equal(t, 2, b.Pending())
	assert.Equal(t, 0, b.Next())

	ready := b.Push(0, 0)
	require.Len(t, ready, 3)
	for i, item := range ready {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, i*10, item.Value)
	}
	assert.Equal(t, 3, b.Next())
	assert.Equal(t, 0, b.Pending())
}

func TestBuffer_IgnoresStaleAndDuplicate(t *testing.T) {
	b := NewBuffer[int](2)
	b.Push(0, 1)

	assert.Empty(t, b.Push(0, 2))
	assert.Empty(t, b.Push(3, 3))
	assert.Empty(t, b.Push(3, 4))
	assert.Equal(t, 1, b.Pending())
}

func TestBuffer_ShuffledDeliveryIsOrdered(t *testing.T) {
	const n = 500
	order := rand.New(rand.NewSource(7)).Perm(n)

	b := NewBuffer[int](n)
	var got []int
	for _, idx := range order {
		for _, item := range b.Push(idx, idx*2) {
			assert.Equal(t, item.Index*2, item.Value)
			got = append(got, item.Index)
		}
	}

	require.Len(t, got, n)
	for i := range got {
		assert.Equal(t, i, got[i])
	}
}
