package leiden

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTwoTriangles(t *testing.T) {
	g := NewGraph(6)
	g.AddEdge(0, 1, 1)
	g.AddEdge(1, 2, 1)
	g.AddEdge(2, 0, 1)
	g.AddEdge(3, 4, 1)
	g.AddEdge(4, 5, 1)
	g.AddEdge(5, 3, 1)
	g.AddEdge(2, 3, 0.1)

	comms, err := Detect(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, comms)
}

func TestDetectWithoutEdgesYieldsSingletons(t *testing.T) {
	g := NewGraph(3)
	// zero weights never connect nodes
	g.AddEdge(0, 0, 0)
	g.AddEdge(1, 2, 0)

	comms, err := Detect(context.Background(), g, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}, {2}}, comms)
}

func TestDetectCoversEveryNodeOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewGraph(40)
	for i := 0; i < 120; i++ {
		g.AddEdge(rng.Intn(40), rng.Intn(40), rng.Float64())
	}

	comms, err := Detect(context.Background(), g, &Options{Resolution: 1.5})
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, c := range comms {
		for _, n := range c {
			seen[n]++
		}
	}
	assert.Len(t, seen, 40)
	for n, count := range seen {
		assert.Equal(t, 1, count, "node %d", n)
	}
}

func TestDetectHonoursCancellation(t *testing.T) {
	g := NewGraph(2)
	g.AddEdge(0, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Detect(ctx, g, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
