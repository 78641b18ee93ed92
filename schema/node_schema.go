package schema

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseCapability = "LogicNodeBase"
	DefaultCategory       = "Rust Nodes"
)

// NodeSchema describes one node type offered by the engine. It is parsed once
// at construction and is read-only afterwards.
type NodeSchema struct {
	typeName       string
	baseCapability string
	category       string
	description    string
	document       []byte

	fields      []FieldDescriptor
	diagnostics []error
}

// NewNodeSchema parses document and builds an immutable schema. Empty
// base and category fall back to DefaultBaseCapability and DefaultCategory.
func NewNodeSchema(typeName, baseCapability, category, description string, document []byte) (*NodeSchema, error) {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return nil, diagnostic(ErrInvalidCatalog, "node schema type name cannot be empty", nil)
	}
	result, err := Parse(document)
	if err != nil {
		return nil, err
	}
	if baseCapability == "" {
		baseCapability = DefaultBaseCapability
	}
	if category == "" {
		category = DefaultCategory
	}
	doc := make([]byte, len(document))
	copy(doc, document)
	return &NodeSchema{
		typeName:       typeName,
		baseCapability: baseCapability,
		category:       category,
		description:    description,
		document:       doc,
		fields:         result.Fields,
		diagnostics:    result.Diagnostics,
	}, nil
}

// MustNodeSchema is NewNodeSchema for literals known to be valid.
func MustNodeSchema(typeName, category string, document string) *NodeSchema {
	s, err := NewNodeSchema(typeName, "", category, "", []byte(document))
	if err != nil {
		panic(err)
	}
	return s
}

func (s *NodeSchema) TypeName() string       { return s.typeName }
func (s *NodeSchema) BaseCapability() string { return s.baseCapability }
func (s *NodeSchema) Category() string       { return s.category }
func (s *NodeSchema) Description() string    { return s.description }

// Document returns a copy of the raw schema document.
func (s *NodeSchema) Document() []byte {
	out := make([]byte, len(s.document))
	copy(out, s.document)
	return out
}

// Fields returns a copy of the parsed descriptors.
func (s *NodeSchema) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field finds a descriptor by full name and direction.
func (s *NodeSchema) Field(fullName string, dir Direction) (FieldDescriptor, bool) {
	for _, f := range s.fields {
		if f.FullName == fullName && f.Direction == dir {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Diagnostics lists the warnings recorded while parsing.
func (s *NodeSchema) Diagnostics() []error {
	out := make([]error, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

// Sockets returns the socket set implied by the schema for dir.
func (s *NodeSchema) Sockets(dir Direction) ([]SocketSpec, []error) {
	return DesiredSockets(s.fields, dir)
}

// Catalog is the set of node schemas published by the engine.
type Catalog struct {
	Version     string
	Schemas     []*NodeSchema
	Diagnostics []error
}

// DecodeCatalog reads
//
//	{"version": "1.0.0", "nodes": [{"name", "base", "category", "description", "fields": {...}}]}
//
// A bare array of node entries is accepted too. Entries that cannot be
// turned into a schema are skipped and reported.
func DecodeCatalog(data []byte) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, diagnostic(ErrInvalidCatalog, "catalog is not valid JSON", nil)
	}
	root := gjson.ParseBytes(data)

	catalog := &Catalog{}
	nodes := root
	if root.IsObject() {
		catalog.Version = root.Get("version").String()
		nodes = root.Get("nodes")
	}
	if !nodes.IsArray() {
		return nil, diagnostic(ErrInvalidCatalog, "catalog must contain a nodes array", nil)
	}

	idx := -1
	nodes.ForEach(func(_, entry gjson.Result) bool {
		idx++
		fields := entry.Get("fields")
		doc := []byte(fields.Raw)
		if !fields.Exists() {
			doc = []byte("{}")
		}
		s, err := NewNodeSchema(
			entry.Get("name").String(),
			entry.Get("base").String(),
			entry.Get("category").String(),
			entry.Get("description").String(),
			doc,
		)
		if err != nil {
			catalog.Diagnostics = append(catalog.Diagnostics,
				diagnostic(ErrInvalidCatalog, "skipping catalog entry", map[string]any{
					"index": idx,
					"error": err.Error(),
				}))
			return true
		}
		catalog.Diagnostics = append(catalog.Diagnostics, s.diagnostics...)
		catalog.Schemas = append(catalog.Schemas, s)
		return true
	})
	return catalog, nil
}
