package graph

import (
	"testing"

	"github.com/goliatone/go-nodegraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specs(pairs ...any) []schema.SocketSpec {
	var out []schema.SocketSpec
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, schema.SocketSpec{Name: pairs[i].(string), Kind: pairs[i+1].(schema.SocketKind)})
	}
	return out
}

func TestReconcileReplacesStaleSockets(t *testing.T) {
	current := &Sockets{}
	Reconcile(specs("a", schema.IntSocket, "b", schema.FloatSocket), current)
	b, _ := current.Get("b")
	require.NoError(t, b.SetValue(schema.FloatValue(4.5)))

	res := Reconcile(specs("b", schema.FloatSocket, "c", schema.BoolSocket), current)
	assert.Equal(t, []string{"a"}, res.Removed)
	assert.Equal(t, []string{"c"}, res.Added)
	assert.Equal(t, []string{"b", "c"}, current.Names())

	same, _ := current.Get("b")
	assert.Same(t, b, same)
	v, _ := same.Value()
	assert.Equal(t, schema.FloatValue(4.5), v)

	c, _ := current.Get("c")
	assert.Equal(t, schema.BoolSocket, c.Kind())
}

func TestReconcileMatchingSetIsNoop(t *testing.T) {
	desired := specs("x", schema.IntSocket, "y", schema.StringSocket)
	current := &Sockets{}
	Reconcile(desired, current)
	before := current.All()

	res := Reconcile(desired, current)
	assert.False(t, res.Changed())
	after := current.All()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
}

func TestReconcileKeepsExistingOrder(t *testing.T) {
	current := &Sockets{}
	Reconcile(specs("a", schema.IntSocket, "b", schema.IntSocket), current)

	res := Reconcile(specs("new", schema.IntSocket, "b", schema.IntSocket, "a", schema.IntSocket), current)
	assert.Equal(t, []string{"new"}, res.Added)
	assert.Equal(t, []string{"a", "b", "new"}, current.Names())
}

func TestReconcileEmptySchemaRemovesEverything(t *testing.T) {
	current := &Sockets{}
	Reconcile(specs("a", schema.IntSocket, "e", schema.ExecutionSocket), current)

	res := Reconcile(nil, current)
	assert.ElementsMatch(t, []string{"a", "e"}, res.Removed)
	assert.Equal(t, 0, current.Len())
}

func TestReconcileAppliesDefaults(t *testing.T) {
	current := &Sockets{}
	Reconcile([]schema.SocketSpec{
		{Name: "n", Kind: schema.FloatSocket, Default: schema.IntValue(3)},
		{Name: "s", Kind: schema.StringSocket},
	}, current)

	n, _ := current.Get("n")
	v, _ := n.Value()
	assert.Equal(t, schema.FloatValue(3), v)

	s, _ := current.Get("s")
	v, _ = s.Value()
	assert.Equal(t, schema.StringValue(""), v)
}

func TestRefreshNodeDropsLinksOnRemovedSockets(t *testing.T) {
	g := New("main")
	src := mustNode(t, g, "Src", `{"out_a": 0, "out_b": 0.0}`)
	dst := NewNode("Dst", schema.MustNodeSchema("Dst", "", `{"in_a": 0, "in_b": 0.0}`))
	_, err := g.AddNode(dst)
	require.NoError(t, err)

	require.NoError(t, g.Connect(Link{FromNode: "Src", FromPin: "a", ToNode: "Dst", ToPin: "a"}))
	require.NoError(t, g.Connect(Link{FromNode: "Src", FromPin: "b", ToNode: "Dst", ToPin: "b"}))
	require.NoError(t, dst.SetValue(schema.Input, "b", schema.FloatValue(1.25)))

	refreshed := schema.MustNodeSchema("Dst", "", `{"in_b": 0.0, "in_c": false}`)
	report, err := g.RefreshNode("Dst", refreshed)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, report.Inputs.Removed)
	assert.Equal(t, []string{"c"}, report.Inputs.Added)
	assert.Same(t, refreshed, dst.Schema())

	assert.Equal(t, []Link{{FromNode: "Src", FromPin: "b", ToNode: "Dst", ToPin: "b"}}, g.Links())
	b, _ := dst.Socket("b", schema.Input)
	v, _ := b.Value()
	assert.Equal(t, schema.FloatValue(1.25), v)

	report, err = g.RefreshNode("Src", schema.MustNodeSchema("Src", "", `{}`))
	require.NoError(t, err)
	assert.Len(t, report.Outputs.Removed, 2)
	assert.Equal(t, 0, src.Outputs().Len())
	assert.Empty(t, g.Links())
}
