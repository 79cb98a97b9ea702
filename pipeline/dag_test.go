package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(_ context.Context, payload any) Result {
	return Result{Payload: payload.(int) * 2}
}

func TestDAGSimpleEdgeFansOut(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", "A", double, true)
	d.AddNode("b", "B", double)
	d.AddNode("c", "C", double)
	d.AddEdge("a to b, c", SimpleEdge, "a", []string{"b", "c"})

	tm, err := d.ProcessTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tm.Visited())

	b, ok := Output[int](tm, "b")
	require.True(t, ok)
	assert.Equal(t, 4, b)
	c, ok := Output[int](tm, "c")
	require.True(t, ok)
	assert.Equal(t, 4, c)
}

func TestDAGConditionEdge(t *testing.T) {
	for _, tc := range []struct {
		status string
		want   string
	}{
		{"yes", "left"},
		{"no", "right"},
	} {
		t.Run(tc.status, func(t *testing.T) {
			d := NewDAG()
			d.AddNode("start", "Start", double, true)
			d.AddNode("check", "Check", func(context.Context, any) Result { return Result{Status: tc.status} })
			d.AddNode("left", "Left", double)
			d.AddNode("right", "Right", double)
			d.AddEdge("branch", ConditionEdge, "start", nil, map[ID]Condition{
				"check": {"yes": "left", "no": "right"},
			})

			tm, err := d.ProcessTask(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, []string{"start", "check", tc.want}, tm.Visited())
			v, ok := Output[int](tm, tc.want)
			require.True(t, ok)
			assert.Equal(t, 12, v)
		})
	}
}

func TestDAGInvalidConditionStatus(t *testing.T) {
	d := NewDAG()
	d.AddNode("start", "Start", double, true)
	d.AddNode("check", "Check", func(context.Context, any) Result { return Result{Status: "maybe"} })
	d.AddEdge("branch", ConditionEdge, "start", nil, map[ID]Condition{"check": {"yes": "start"}})

	_, err := d.ProcessTask(context.Background(), 1)
	assert.ErrorContains(t, err, "invalid condition status: maybe")
}

func TestDAGErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	d := NewDAG()
	d.AddNode("a", "A", double, true)
	d.AddNode("b", "B", func(context.Context, any) Result { return Result{Error: boom} })
	d.AddNode("c", "C", double)
	d.AddEdge("a to b", SimpleEdge, "a", []string{"b"})
	d.AddEdge("b to c", SimpleEdge, "b", []string{"c"})

	tm, err := d.ProcessTask(context.Background(), 1)
	require.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "b: boom")
	assert.Equal(t, []string{"a", "b"}, tm.Visited())
	_, ok := Output[int](tm, "b")
	assert.False(t, ok)
}

func TestDAGStartNode(t *testing.T) {
	d := NewDAG()
	_, err := d.ProcessTask(context.Background(), 1)
	assert.EqualError(t, err, "no start node found")

	// Without an explicit flag the node nobody points at is the start.
	d.AddNode("b", "B", double)
	d.AddNode("a", "A", double)
	d.AddEdge("a to b", SimpleEdge, "a", []string{"b"})
	tm, err := d.ProcessTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tm.Visited())
}

func TestDAGMissingTarget(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", "A", double, true)
	d.AddEdge("dangling", SimpleEdge, "a", []string{"ghost"})
	_, err := d.ProcessTask(context.Background(), 1)
	assert.EqualError(t, err, `node "ghost" not found`)
}

func TestDAGCancelled(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", "A", double, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.ProcessTask(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputTypeMismatch(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", "A", double, true)
	tm, err := d.ProcessTask(context.Background(), 1)
	require.NoError(t, err)
	_, ok := Output[string](tm, "a")
	assert.False(t, ok)
	_, ok = Output[int](tm, "missing")
	assert.False(t, ok)
}
