package nodegraph

import (
	"sort"

	"github.com/goliatone/go-nodegraph/graph"
	"github.com/goliatone/go-nodegraph/schema"
)

// Registry maps node type names to the schema that drives their instances.
// It is not safe for concurrent use: a Session owns it and performs every
// mutation on its own goroutine.
type Registry struct {
	types  map[string]*schema.NodeSchema
	order  []string
	logger Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registration diagnostics.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		types: make(map[string]*schema.NodeSchema),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = normalizeLogger(r.logger)
	return r
}

// Register adds s under its type name. Registering a name twice replaces
// the earlier schema in place and reports replaced=true.
func (r *Registry) Register(s *schema.NodeSchema) (replaced bool, err error) {
	if s == nil {
		return false, cloneError(ErrInvalidSchema, "node schema cannot be nil", nil, nil)
	}
	name := s.TypeName()
	logger := withLoggerFields(r.logger, map[string]any{"node_type": name})

	for _, diag := range s.Diagnostics() {
		logger.Warn("node schema diagnostic: %v", diag)
	}

	if _, exists := r.types[name]; exists {
		replaced = true
		logger.Warn("%v", cloneError(ErrDuplicateRegistration, "", nil, map[string]any{"node_type": name}))
	} else {
		r.order = append(r.order, name)
	}
	r.types[name] = s
	logger.Debug("registered node type category=%s", s.Category())
	return replaced, nil
}

// Unregister removes a type and reports whether it was present. Live
// instances keep the schema they were created with.
func (r *Registry) Unregister(typeName string) bool {
	if _, ok := r.types[typeName]; !ok {
		return false
	}
	delete(r.types, typeName)
	for i, name := range r.order {
		if name == typeName {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Lookup(typeName string) (*schema.NodeSchema, bool) {
	s, ok := r.types[typeName]
	return s, ok
}

// Types lists registered type names in registration order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// PaletteItem is one placeable node type.
type PaletteItem struct {
	TypeName    string
	Label       string
	Description string
}

// PaletteCategory groups items shown together in the type palette.
type PaletteCategory struct {
	Name  string
	Items []PaletteItem
}

// Palette groups registered types by category. Categories are sorted by
// name; items keep registration order.
func (r *Registry) Palette() []PaletteCategory {
	index := make(map[string]int)
	var palette []PaletteCategory
	for _, name := range r.order {
		s := r.types[name]
		idx, ok := index[s.Category()]
		if !ok {
			idx = len(palette)
			index[s.Category()] = idx
			palette = append(palette, PaletteCategory{Name: s.Category()})
		}
		palette[idx].Items = append(palette[idx].Items, PaletteItem{
			TypeName:    name,
			Label:       name,
			Description: s.Description(),
		})
	}
	sort.SliceStable(palette, func(i, j int) bool {
		return palette[i].Name < palette[j].Name
	})
	return palette
}

// NewNode places an instance of typeName on g. An empty name derives one
// from the type name. The new node's sockets come from its schema.
func (r *Registry) NewNode(g *graph.Graph, typeName, name string) (*graph.Node, error) {
	s, ok := r.types[typeName]
	if !ok {
		return nil, cloneError(ErrUnknownType, "", nil, map[string]any{"node_type": typeName})
	}
	if name == "" {
		name = g.UniqueName(typeName)
	}
	n := graph.NewNode(name, s)
	report, err := g.AddNode(n)
	if err != nil {
		return nil, err
	}
	for _, diag := range report.Diagnostics {
		r.logger.Warn("node %s socket diagnostic: %v", name, diag)
	}
	return n, nil
}

// SerializeNode produces the per-field values of n.
func (r *Registry) SerializeNode(n *graph.Node) *graph.Values {
	values, skipped := graph.SerializeNode(n)
	for _, err := range skipped {
		r.logger.Debug("serialize node %s skipped: %v", n.Name(), err)
	}
	return values
}

// RefreshGraph reconciles every node of g whose type is registered against
// the current registration. Nodes of unregistered types are left alone.
func (r *Registry) RefreshGraph(g *graph.Graph) map[string]graph.Report {
	reports := make(map[string]graph.Report)
	for _, n := range g.Nodes() {
		s, ok := r.types[n.TypeName()]
		if !ok {
			continue
		}
		report, err := g.RefreshNode(n.Name(), s)
		if err != nil {
			r.logger.Warn("refresh node %s failed: %v", n.Name(), err)
			continue
		}
		if report.Changed() {
			r.logger.Info("node %s reconciled inputs=+%v-%v outputs=+%v-%v",
				n.Name(),
				report.Inputs.Added, report.Inputs.Removed,
				report.Outputs.Added, report.Outputs.Removed,
			)
		}
		reports[n.Name()] = report
	}
	return reports
}
