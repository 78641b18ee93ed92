package schema

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/tidwall/gjson"
)

const (
	InputPrefix  = "in_"
	OutputPrefix = "out_"

	// TypeNameKey is reserved metadata, never a field.
	TypeNameKey = "type_name"
	// ExecutionTypeName marks an object as an execution pseudo-field.
	ExecutionTypeName = "ScriptExecution"

	GroupSeparator = "."
)

// Direction tells whether a field feeds a node (Input) or is produced by it.
// Output is the zero value because it is the default at the schema root.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Prefix returns the key prefix encoding d.
func (d Direction) Prefix() string {
	if d == Input {
		return InputPrefix
	}
	return OutputPrefix
}

// FieldDescriptor is one typed field of a node schema.
type FieldDescriptor struct {
	// Key is the original key, prefix included.
	Key string
	// Name is Key without its direction prefix.
	Name string
	// Group is the dotted path of enclosing groups, "" at the top level.
	Group string
	// FullName is Group.Name, or Name when Group is empty. Sockets use it.
	FullName string
	// Path holds the original keys from the document root down to Key.
	Path      []string
	Direction Direction
	Type      PrimitiveType
	Default   Value
}

// HasDefault reports whether the schema supplied a scalar default.
func (f FieldDescriptor) HasDefault() bool { return !f.Default.IsEmpty() }

// ParseResult is the flattened output of Parse.
type ParseResult struct {
	Fields []FieldDescriptor
	// Diagnostics holds recovered problems: ambiguous prefixes, unsupported
	// leaves and duplicate names. None of them abort parsing.
	Diagnostics []error
}

// Filter returns the fields with direction d, in declaration order.
func (r *ParseResult) Filter(d Direction) []FieldDescriptor {
	if r == nil {
		return nil
	}
	out := make([]FieldDescriptor, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f.Direction == d {
			out = append(out, f)
		}
	}
	return out
}

// Parse flattens a schema document into field descriptors. Only a malformed
// document is an error.
func Parse(document []byte) (*ParseResult, error) {
	if len(strings.TrimSpace(string(document))) == 0 {
		return &ParseResult{}, nil
	}
	if !gjson.ValidBytes(document) {
		return nil, diagnostic(ErrInvalidDocument, "schema document is not valid JSON", nil)
	}
	root := gjson.ParseBytes(document)
	if !root.IsObject() {
		return nil, diagnostic(ErrInvalidDocument, "", map[string]any{"type": root.Type.String()})
	}
	return ParseGroup(root, "", Output), nil
}

// ParseGroup walks obj as if it were nested under groupPrefix with the
// given inherited direction. Keys without a prefix inherit it.
func ParseGroup(obj gjson.Result, groupPrefix string, inherited Direction) *ParseResult {
	p := &parser{
		result: &ParseResult{},
		seen: map[Direction]map[string]bool{
			Input:  {},
			Output: {},
		},
	}
	p.walk(obj, groupPrefix, nil, inherited, groupPrefix == "")
	return p.result
}

type parser struct {
	result *ParseResult
	seen   map[Direction]map[string]bool
}

func (p *parser) walk(obj gjson.Result, group string, path []string, inherited Direction, root bool) {
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if key == TypeNameKey {
			return true
		}

		dir, name, prefixed := SplitKey(key, inherited)
		keyPath := appendPath(path, key)
		if !prefixed && root {
			p.warn(ErrParseWarning, "top-level key has no in_/out_ prefix, treated as output", keyPath)
		}
		if name == "" {
			p.warn(ErrParseWarning, "key has an empty name after its prefix", keyPath)
			return true
		}
		full := JoinName(group, name)

		if v.IsObject() {
			if IsExecutionMarker(v) {
				p.emit(FieldDescriptor{
					Key:       key,
					Name:      name,
					Group:     group,
					FullName:  full,
					Path:      keyPath,
					Direction: dir,
					Type:      TypeExecution,
				})
				return true
			}
			p.walk(v, full, keyPath, dir, false)
			return true
		}

		value, ok := ValueFromJSON(v)
		if !ok {
			p.warn(ErrUnsupportedType, "", keyPath, "json_type", v.Type.String())
			return true
		}
		p.emit(FieldDescriptor{
			Key:       key,
			Name:      name,
			Group:     group,
			FullName:  full,
			Path:      keyPath,
			Direction: dir,
			Type:      value.Type(),
			Default:   value,
		})
		return true
	})
}

func (p *parser) emit(f FieldDescriptor) {
	if p.seen[f.Direction][f.FullName] {
		p.warn(ErrDuplicateField, "", f.Path, "name", f.FullName, "direction", f.Direction.String())
		return
	}
	p.seen[f.Direction][f.FullName] = true
	p.result.Fields = append(p.result.Fields, f)
}

func (p *parser) warn(base *errors.Error, message string, path []string, kv ...any) {
	meta := map[string]any{"path": strings.Join(path, GroupSeparator)}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			meta[k] = kv[i+1]
		}
	}
	p.result.Diagnostics = append(p.result.Diagnostics, diagnostic(base, message, meta))
}

// SplitKey strips a direction prefix from key. Without a prefix the key
// keeps its name and takes the inherited direction.
func SplitKey(key string, inherited Direction) (Direction, string, bool) {
	switch {
	case strings.HasPrefix(key, InputPrefix):
		return Input, strings.TrimPrefix(key, InputPrefix), true
	case strings.HasPrefix(key, OutputPrefix):
		return Output, strings.TrimPrefix(key, OutputPrefix), true
	}
	return inherited, key, false
}

func JoinName(group, name string) string {
	if group == "" {
		return name
	}
	return group + GroupSeparator + name
}

// IsExecutionMarker reports whether obj is a {"type_name": "ScriptExecution"} leaf.
func IsExecutionMarker(obj gjson.Result) bool {
	if !obj.IsObject() {
		return false
	}
	tn := obj.Get(TypeNameKey)
	return tn.Type == gjson.String && tn.String() == ExecutionTypeName
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}
