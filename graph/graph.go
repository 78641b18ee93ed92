package graph

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-nodegraph/schema"
)

// Link connects an output socket of one node to an input socket of another.
type Link struct {
	FromNode string `json:"from_node" yaml:"from_node"`
	ToNode   string `json:"to_node" yaml:"to_node"`
	FromPin  string `json:"from_pin" yaml:"from_pin"`
	ToPin    string `json:"to_pin" yaml:"to_pin"`
}

func (l Link) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.FromNode, l.FromPin, l.ToNode, l.ToPin)
}

// Graph is one node tree. It is not safe for concurrent use; a single owner
// performs every mutation.
type Graph struct {
	name  string
	nodes []*Node
	index map[string]*Node
	links []Link
}

func New(name string) *Graph {
	return &Graph{
		name:  name,
		index: make(map[string]*Node),
	}
}

func (g *Graph) Name() string { return g.name }

// Nodes returns live nodes in placement order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.index[name]
	return n, ok
}

// Len is the number of live nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddNode places n on the graph and populates its sockets from its schema.
func (g *Graph) AddNode(n *Node) (Report, error) {
	if n == nil || strings.TrimSpace(n.name) == "" {
		return Report{}, newError(ErrNodeNotFound, "node must have a name", nil)
	}
	if _, exists := g.index[n.name]; exists {
		return Report{}, newError(ErrNodeExists, "", map[string]any{
			"graph": g.name,
			"node":  n.name,
		})
	}
	report, err := n.initialize()
	if err != nil {
		return Report{}, err
	}
	g.nodes = append(g.nodes, n)
	g.index[n.name] = n
	return report, nil
}

// UniqueName returns base, or base.001, base.002... whichever is free.
func (g *Graph) UniqueName(base string) string {
	if _, taken := g.index[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if _, taken := g.index[candidate]; !taken {
			return candidate
		}
	}
}

// RemoveNode destroys the named node and drops every link touching it.
func (g *Graph) RemoveNode(name string) error {
	n, ok := g.index[name]
	if !ok {
		return newError(ErrNodeNotFound, "", map[string]any{"graph": g.name, "node": name})
	}
	if err := n.destroy(); err != nil {
		return err
	}
	delete(g.index, name)
	for i, candidate := range g.nodes {
		if candidate == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	g.filterLinks(func(l Link) bool {
		return l.FromNode != name && l.ToNode != name
	})
	return nil
}

// RefreshNode reconciles the named node against s (or its current schema
// when s is nil) and drops links attached to removed sockets.
func (g *Graph) RefreshNode(name string, s *schema.NodeSchema) (Report, error) {
	n, ok := g.index[name]
	if !ok {
		return Report{}, newError(ErrNodeNotFound, "", map[string]any{"graph": g.name, "node": name})
	}
	report, err := n.refresh(s)
	if err != nil {
		return Report{}, err
	}
	if report.Changed() {
		g.Prune()
	}
	return report, nil
}

// Connect adds a link from an output socket to an input socket. Both
// sockets must exist and the input must accept the output's kind (see
// schema.SocketKind.Accepts). Adding an existing link is a no-op.
func (g *Graph) Connect(l Link) error {
	from, to, err := g.resolve(l)
	if err != nil {
		return err
	}
	if !to.Kind().Accepts(from.Kind()) {
		return newError(ErrIncompatiblePins, "", map[string]any{
			"link": l.String(),
			"from": from.Kind().String(),
			"to":   to.Kind().String(),
		})
	}
	for _, existing := range g.links {
		if existing == l {
			return nil
		}
	}
	g.links = append(g.links, l)
	return nil
}

// Disconnect removes l and reports whether it was present.
func (g *Graph) Disconnect(l Link) bool {
	before := len(g.links)
	g.filterLinks(func(existing Link) bool { return existing != l })
	return len(g.links) != before
}

// Links returns the links in insertion order.
func (g *Graph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

func (g *Graph) LinksFrom(node string) []Link {
	return g.selectLinks(func(l Link) bool { return l.FromNode == node })
}

func (g *Graph) LinksFromPin(node, pin string) []Link {
	return g.selectLinks(func(l Link) bool { return l.FromNode == node && l.FromPin == pin })
}

func (g *Graph) LinksTo(node string) []Link {
	return g.selectLinks(func(l Link) bool { return l.ToNode == node })
}

func (g *Graph) LinksToPin(node, pin string) []Link {
	return g.selectLinks(func(l Link) bool { return l.ToNode == node && l.ToPin == pin })
}

// Prune drops every link whose endpoints no longer exist and returns them.
func (g *Graph) Prune() []Link {
	var dropped []Link
	g.filterLinks(func(l Link) bool {
		if _, _, err := g.resolve(l); err != nil {
			dropped = append(dropped, l)
			return false
		}
		return true
	})
	return dropped
}

func (g *Graph) resolve(l Link) (*Socket, *Socket, error) {
	fromNode, ok := g.index[l.FromNode]
	if !ok {
		return nil, nil, dangling(l, "from_node")
	}
	toNode, ok := g.index[l.ToNode]
	if !ok {
		return nil, nil, dangling(l, "to_node")
	}
	from, ok := fromNode.outputs.Get(l.FromPin)
	if !ok {
		return nil, nil, dangling(l, "from_pin")
	}
	to, ok := toNode.inputs.Get(l.ToPin)
	if !ok {
		return nil, nil, dangling(l, "to_pin")
	}
	return from, to, nil
}

func dangling(l Link, endpoint string) error {
	return newError(ErrDanglingReference, "", map[string]any{
		"link":     l.String(),
		"endpoint": endpoint,
	})
}

func (g *Graph) selectLinks(keep func(Link) bool) []Link {
	var out []Link
	for _, l := range g.links {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (g *Graph) filterLinks(keep func(Link) bool) {
	kept := g.links[:0]
	for _, l := range g.links {
		if keep(l) {
			kept = append(kept, l)
		}
	}
	g.links = kept
}
