package graph

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/goliatone/go-nodegraph/schema"
	"github.com/tidwall/gjson"
)

// Values is the per-field value tree of one serialized node. It keeps the
// schema's prefixed keys and their declaration order.
type Values struct {
	keys    []string
	entries map[string]*valueEntry
}

type valueEntry struct {
	value     schema.Value
	execution bool
	group     *Values
	// raw holds schema JSON that is not a field, written back verbatim.
	raw []byte
}

func (e *valueEntry) reset() {
	*e = valueEntry{}
}

func NewValues() *Values {
	return &Values{entries: make(map[string]*valueEntry)}
}

// Keys lists top-level keys in insertion order.
func (v *Values) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Len is the number of top-level keys.
func (v *Values) Len() int { return len(v.keys) }

// Set stores a scalar under path, creating groups along the way.
func (v *Values) Set(path []string, value schema.Value) {
	if e := v.entry(path); e != nil {
		e.reset()
		e.value = value
	}
}

// SetExecution stores the execution marker under path.
func (v *Values) SetExecution(path []string) {
	if e := v.entry(path); e != nil {
		e.reset()
		e.execution = true
	}
}

func (v *Values) setGroup(key string, group *Values) {
	if e := v.entry([]string{key}); e != nil {
		e.reset()
		e.group = group
	}
}

func (v *Values) setRaw(key string, raw []byte) {
	if e := v.entry([]string{key}); e != nil {
		e.reset()
		e.raw = raw
	}
}

// Lookup returns the scalar stored under path.
func (v *Values) Lookup(path []string) (schema.Value, bool) {
	e := v.find(path)
	if e == nil || e.execution || e.group != nil || e.raw != nil {
		return schema.Value{}, false
	}
	return e.value, true
}

// IsExecution reports whether path holds the execution marker.
func (v *Values) IsExecution(path []string) bool {
	e := v.find(path)
	return e != nil && e.execution
}

func (v *Values) find(path []string) *valueEntry {
	cur := v
	for i, key := range path {
		if cur == nil {
			return nil
		}
		e, ok := cur.entries[key]
		if !ok {
			return nil
		}
		if i == len(path)-1 {
			return e
		}
		cur = e.group
	}
	return nil
}

func (v *Values) entry(path []string) *valueEntry {
	if len(path) == 0 {
		return nil
	}
	cur := v
	for i, key := range path {
		e, ok := cur.entries[key]
		if !ok {
			e = &valueEntry{}
			cur.entries[key] = e
			cur.keys = append(cur.keys, key)
		}
		if i == len(path)-1 {
			return e
		}
		if e.group == nil {
			e.reset()
			e.group = NewValues()
		}
		cur = e.group
	}
	return nil
}

// Equal compares key order, structure and values.
func (v *Values) Equal(o *Values) bool {
	if v == nil || o == nil {
		return v == o
	}
	if len(v.keys) != len(o.keys) {
		return false
	}
	for i, key := range v.keys {
		if o.keys[i] != key {
			return false
		}
		a, b := v.entries[key], o.entries[key]
		if a.execution != b.execution || !a.value.Equal(b.value) || !a.group.Equal(b.group) || !bytes.Equal(a.raw, b.raw) {
			return false
		}
	}
	return true
}

var executionMarker = []byte(`{"` + schema.TypeNameKey + `":"` + schema.ExecutionTypeName + `"}`)

func (v *Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		e := v.entries[key]
		switch {
		case e.execution:
			buf.Write(executionMarker)
		case e.raw != nil:
			if err := json.Compact(&buf, e.raw); err != nil {
				return nil, err
			}
		case e.group != nil:
			raw, err := e.group.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		default:
			raw, err := e.value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeValues reads a prefixed value tree. Leaves that are not scalars
// are kept verbatim when keepRaw is set and dropped otherwise. A repeated
// key replaces the earlier value in place.
func decodeValues(obj gjson.Result, keepRaw bool) *Values {
	out := NewValues()
	obj.ForEach(func(k, val gjson.Result) bool {
		key := k.String()
		switch {
		case schema.IsExecutionMarker(val):
			out.SetExecution([]string{key})
		case val.IsObject():
			out.setGroup(key, decodeValues(val, keepRaw))
		default:
			if value, ok := schema.ValueFromJSON(val); ok {
				out.Set([]string{key}, value)
			} else if keepRaw {
				out.setRaw(key, []byte(val.Raw))
			}
		}
		return true
	})
	return out
}

// schemaValues is the value tree of s's document: defaults, groups and
// metadata such as a group's type_name, in declaration order.
func schemaValues(s *schema.NodeSchema) *Values {
	if s == nil {
		return NewValues()
	}
	return decodeValues(gjson.ParseBytes(s.Document()), true)
}

// NodeEntry is one serialized node.
type NodeEntry struct {
	Name   string
	Values *Values
}

// Document is the GraphDocument exchanged with the engine:
//
//	{"nodes": {<name>: {<prefixed field>: <value>, ...}}, "links": [{"from_node", "to_node", "from_pin", "to_pin"}]}
type Document struct {
	Nodes []NodeEntry
	Links []Link
}

// Node returns the values serialized for name.
func (d *Document) Node(name string) (*Values, bool) {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n.Values, true
		}
	}
	return nil, false
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"nodes":{`)
	for i, n := range d.Nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		values := n.Values
		if values == nil {
			values = NewValues()
		}
		raw, err := values.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteString(`},"links":`)
	links := d.Links
	if links == nil {
		links = []Link{}
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	buf.Write(raw)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a GraphDocument, keeping node order as written.
func Decode(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, newError(ErrInvalidDocument, "graph document is not valid JSON", nil)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, newError(ErrInvalidDocument, "graph document must be an object", nil)
	}

	doc := &Document{}
	nodes := root.Get("nodes")
	if nodes.Exists() && !nodes.IsObject() {
		return nil, newError(ErrInvalidDocument, "nodes must be an object", nil)
	}
	nodes.ForEach(func(k, v gjson.Result) bool {
		doc.Nodes = append(doc.Nodes, NodeEntry{Name: k.String(), Values: decodeValues(v, false)})
		return true
	})

	links := root.Get("links")
	if links.Exists() && !links.IsArray() {
		return nil, newError(ErrInvalidDocument, "links must be an array", nil)
	}
	links.ForEach(func(_, v gjson.Result) bool {
		doc.Links = append(doc.Links, Link{
			FromNode: v.Get("from_node").String(),
			ToNode:   v.Get("to_node").String(),
			FromPin:  v.Get("from_pin").String(),
			ToPin:    v.Get("to_pin").String(),
		})
		return true
	})
	return doc, nil
}

// Equal compares two documents. Node order matters, link order does not.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.Nodes) != len(o.Nodes) || len(d.Links) != len(o.Links) {
		return false
	}
	for i := range d.Nodes {
		if d.Nodes[i].Name != o.Nodes[i].Name || !d.Nodes[i].Values.Equal(o.Nodes[i].Values) {
			return false
		}
	}
	a, b := sortedLinks(d.Links), sortedLinks(o.Links)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedLinks(links []Link) []Link {
	out := make([]Link, len(links))
	copy(out, links)
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
