package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseScalarFields(t *testing.T) {
	res, err := Parse([]byte(`{"in_a": 0, "out_b": 0.0}`))
	require.NoError(t, err)
	require.Len(t, res.Fields, 2)
	assert.Empty(t, res.Diagnostics)

	a := res.Fields[0]
	assert.Equal(t, "in_a", a.Key)
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "a", a.FullName)
	assert.Equal(t, "", a.Group)
	assert.Equal(t, Input, a.Direction)
	assert.Equal(t, TypeInt, a.Type)

	b := res.Fields[1]
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, Output, b.Direction)
	assert.Equal(t, TypeFloat, b.Type)
	f, ok := b.Default.Float()
	assert.True(t, ok)
	assert.Equal(t, 0.0, f)
}

func TestParseExecutionMarkerCollapsesToGroupKey(t *testing.T) {
	res, err := Parse([]byte(`{"in_exec": {"type_name": "ScriptExecution"}, "in_x": true}`))
	require.NoError(t, err)
	require.Len(t, res.Fields, 2)

	exec := res.Fields[0]
	assert.Equal(t, "exec", exec.FullName)
	assert.Equal(t, Input, exec.Direction)
	assert.Equal(t, TypeExecution, exec.Type)
	assert.False(t, exec.HasDefault())

	x := res.Fields[1]
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, TypeBool, x.Type)
}

func TestParseNestedGroupsInheritDirection(t *testing.T) {
	doc := `{
		"in_transform": {
			"position": {"x": 1.5, "y": 2},
			"out_scale": 3.0,
			"on_done": {"type_name": "ScriptExecution"}
		},
		"out_name": "node"
	}`
	res, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)

	names := make([]string, 0, len(res.Fields))
	for _, f := range res.Fields {
		names = append(names, f.FullName)
	}
	assert.Equal(t, []string{
		"transform.position.x",
		"transform.position.y",
		"transform.scale",
		"transform.on_done",
		"name",
	}, names)

	assert.Equal(t, Input, res.Fields[0].Direction)
	assert.Equal(t, "transform.position", res.Fields[0].Group)
	assert.Equal(t, []string{"in_transform", "position", "x"}, res.Fields[0].Path)
	assert.Equal(t, TypeInt, res.Fields[1].Type)
	assert.Equal(t, Output, res.Fields[2].Direction, "nested prefix overrides the group")
	assert.Equal(t, "out_scale", res.Fields[2].Key)
	assert.Equal(t, Input, res.Fields[3].Direction, "execution marker inherits the nearest prefix")
	assert.Equal(t, TypeExecution, res.Fields[3].Type)
	assert.Equal(t, TypeString, res.Fields[4].Type)
}

func TestParseUnprefixedTopLevelKeyIsOutputWithWarning(t *testing.T) {
	res, err := Parse([]byte(`{"type_name": "Node", "speed": 1}`))
	require.NoError(t, err)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, Output, res.Fields[0].Direction)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, ErrCodeParseWarning, ErrorCode(res.Diagnostics[0]))
}

func TestParseSkipsUnsupportedLeaves(t *testing.T) {
	res, err := Parse([]byte(`{"in_list": [1, 2], "in_nothing": null, "in_ok": "yes"}`))
	require.NoError(t, err)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "ok", res.Fields[0].Name)
	require.Len(t, res.Diagnostics, 2)
	for _, d := range res.Diagnostics {
		assert.Equal(t, ErrCodeUnsupportedType, ErrorCode(d))
	}
}

func TestParseFullNamesUniquePerDirection(t *testing.T) {
	doc := `{"in_g": {"a": 1}, "in_g.a": 2, "out_g": {"a": 3}, "in_a": 1, "in_a": 5}`
	res, err := Parse([]byte(doc))
	require.NoError(t, err)

	seen := map[Direction]map[string]bool{Input: {}, Output: {}}
	for _, f := range res.Fields {
		assert.False(t, seen[f.Direction][f.FullName], "duplicate %s/%s", f.Direction, f.FullName)
		seen[f.Direction][f.FullName] = true
	}
	assert.True(t, seen[Output]["g.a"])
	assert.True(t, seen[Input]["g.a"])

	dups := 0
	for _, d := range res.Diagnostics {
		if ErrorCode(d) == ErrCodeDuplicateField {
			dups++
		}
	}
	assert.Equal(t, 2, dups)
}

func TestParseEmptyAndInvalidDocuments(t *testing.T) {
	res, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, res.Fields)

	res, err = Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Fields)

	_, err = Parse([]byte(`[1,2]`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidDocument, ErrorCode(err))

	_, err = Parse([]byte(`{"in_a":`))
	require.Error(t, err)
}

func TestParseGroupWithPrefix(t *testing.T) {
	res := ParseGroup(gjson.Parse(`{"x": 1, "out_y": 2}`), "pos", Input)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "pos.x", res.Fields[0].FullName)
	assert.Equal(t, Input, res.Fields[0].Direction)
	assert.Equal(t, "pos.y", res.Fields[1].FullName)
	assert.Equal(t, Output, res.Fields[1].Direction)
	assert.Empty(t, res.Diagnostics)
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key      string
		dir      Direction
		name     string
		prefixed bool
	}{
		{"in_a", Input, "a", true},
		{"out_b", Output, "b", true},
		{"inner", Input, "inner", false},
		{"output", Input, "output", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			dir, name, prefixed := SplitKey(tt.key, Input)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.prefixed, prefixed)
		})
	}
}
