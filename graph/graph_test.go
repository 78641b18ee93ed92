package graph

import (
	"testing"

	"github.com/goliatone/go-nodegraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, g *Graph, name, doc string) *Node {
	t.Helper()
	n := NewNode(name, schema.MustNodeSchema(name+"Type", "", doc))
	_, err := g.AddNode(n)
	require.NoError(t, err)
	return n
}

func TestAddNodePopulatesSockets(t *testing.T) {
	g := New("main")
	n := NewNode("N1", schema.MustNodeSchema("Adder", "", `{"in_a": 0, "out_b": 0.0}`))
	assert.Equal(t, StateUninitialized, n.State())

	report, err := g.AddNode(n)
	require.NoError(t, err)
	assert.Equal(t, StateLive, n.State())
	assert.Equal(t, []string{"a"}, report.Inputs.Added)
	assert.Equal(t, []string{"b"}, report.Outputs.Added)

	a, ok := n.Socket("a", schema.Input)
	require.True(t, ok)
	assert.Equal(t, schema.IntSocket, a.Kind())
	b, ok := n.Socket("b", schema.Output)
	require.True(t, ok)
	assert.Equal(t, schema.FloatSocket, b.Kind())

	_, err = g.AddNode(NewNode("N1", n.Schema()))
	require.Error(t, err)
	assert.Equal(t, ErrCodeNodeExists, ErrorCode(err))
}

func TestNodeLifecycleTransitions(t *testing.T) {
	g := New("main")
	n := mustNode(t, g, "N", `{"in_a": 1}`)

	_, err := g.AddNode(n)
	require.Error(t, err, "a live node cannot be placed again")

	_, err = g.RefreshNode("N", nil)
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode("N"))
	assert.Equal(t, StateDestroyed, n.State())
	_, err = n.refresh(nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidTransition, ErrorCode(err))

	err = g.RemoveNode("N")
	assert.Equal(t, ErrCodeNodeNotFound, ErrorCode(err))
}

func TestConnectValidatesEndpoints(t *testing.T) {
	g := New("main")
	mustNode(t, g, "A", `{"out_exec": {"type_name": "ScriptExecution"}, "out_v": 1}`)
	mustNode(t, g, "B", `{"in_exec": {"type_name": "ScriptExecution"}, "in_v": 0.5}`)

	require.NoError(t, g.Connect(Link{FromNode: "A", FromPin: "exec", ToNode: "B", ToPin: "exec"}))
	require.NoError(t, g.Connect(Link{FromNode: "A", FromPin: "v", ToNode: "B", ToPin: "v"}))
	require.NoError(t, g.Connect(Link{FromNode: "A", FromPin: "v", ToNode: "B", ToPin: "v"}))
	assert.Len(t, g.Links(), 2)

	err := g.Connect(Link{FromNode: "A", FromPin: "exec", ToNode: "B", ToPin: "v"})
	assert.Equal(t, ErrCodeIncompatiblePins, ErrorCode(err))

	mustNode(t, g, "C", `{"out_s": "text"}`)
	mustNode(t, g, "D", `{"in_flag": false}`)
	err = g.Connect(Link{FromNode: "C", FromPin: "s", ToNode: "D", ToPin: "flag"})
	assert.Equal(t, ErrCodeIncompatiblePins, ErrorCode(err))
	assert.Empty(t, g.LinksTo("D"))

	err = g.Connect(Link{FromNode: "A", FromPin: "missing", ToNode: "B", ToPin: "v"})
	assert.Equal(t, ErrCodeDanglingReference, ErrorCode(err))

	err = g.Connect(Link{FromNode: "B", FromPin: "v", ToNode: "A", ToPin: "v"})
	assert.Equal(t, ErrCodeDanglingReference, ErrorCode(err), "inputs cannot be link sources")

	assert.Len(t, g.LinksFrom("A"), 2)
	assert.Len(t, g.LinksToPin("B", "exec"), 1)
	assert.Empty(t, g.LinksTo("A"))

	assert.True(t, g.Disconnect(Link{FromNode: "A", FromPin: "v", ToNode: "B", ToPin: "v"}))
	assert.False(t, g.Disconnect(Link{FromNode: "A", FromPin: "v", ToNode: "B", ToPin: "v"}))
	assert.Len(t, g.LinksFromPin("A", "v"), 0)
}

func TestRemoveNodeDropsItsLinks(t *testing.T) {
	g := New("main")
	mustNode(t, g, "A", `{"out_v": 1}`)
	mustNode(t, g, "B", `{"in_v": 1, "out_v": 1}`)
	mustNode(t, g, "C", `{"in_v": 1}`)
	require.NoError(t, g.Connect(Link{FromNode: "A", FromPin: "v", ToNode: "B", ToPin: "v"}))
	require.NoError(t, g.Connect(Link{FromNode: "B", FromPin: "v", ToNode: "C", ToPin: "v"}))

	require.NoError(t, g.RemoveNode("B"))
	assert.Empty(t, g.Links())
	assert.Equal(t, 2, g.Len())
}

func TestUniqueName(t *testing.T) {
	g := New("main")
	assert.Equal(t, "Node", g.UniqueName("Node"))
	mustNode(t, g, "Node", `{}`)
	assert.Equal(t, "Node.001", g.UniqueName("Node"))
	mustNode(t, g, "Node.001", `{}`)
	assert.Equal(t, "Node.002", g.UniqueName("Node"))
}

func TestSetValueConvertsNumbers(t *testing.T) {
	g := New("main")
	n := mustNode(t, g, "N", `{"in_f": 0.0, "in_s": "x", "in_e": {"type_name": "ScriptExecution"}}`)

	require.NoError(t, n.SetValue(schema.Input, "f", schema.IntValue(2)))
	s, _ := n.Socket("f", schema.Input)
	v, _ := s.Value()
	assert.Equal(t, schema.FloatValue(2), v)

	err := n.SetValue(schema.Input, "s", schema.BoolValue(true))
	assert.Equal(t, ErrCodeValueNotAssignable, ErrorCode(err))

	err = n.SetValue(schema.Input, "e", schema.IntValue(1))
	assert.Equal(t, ErrCodeValueNotAssignable, ErrorCode(err))

	err = n.SetValue(schema.Output, "f", schema.IntValue(1))
	assert.Equal(t, ErrCodeDanglingReference, ErrorCode(err))
}
