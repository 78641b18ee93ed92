package nodegraph

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-nodegraph/graph"
	"github.com/goliatone/go-nodegraph/schema"
	"gopkg.in/yaml.v3"
)

// Scene is a hand written graph description: which node types to place,
// the values to set on them and the links between them.
//
//	graph: main
//	nodes:
//	  - name: Start
//	    type: OnStart
//	  - name: Mover
//	    type: MoveTo
//	    values:
//	      in_transform: {x: 1.5, y: 2}
//	links:
//	  - {from_node: Start, from_pin: on_init, to_node: Mover, to_pin: exec}
type Scene struct {
	Graph string       `yaml:"graph"`
	Nodes []SceneNode  `yaml:"nodes"`
	Links []graph.Link `yaml:"links"`
}

type SceneNode struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Values map[string]any `yaml:"values"`
}

// LoadScene decodes a YAML scene.
func LoadScene(data []byte) (*Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, cloneError(ErrInvalidScene, "scene is not valid YAML", err, nil)
	}
	if scene.Graph == "" {
		scene.Graph = "main"
	}
	for i, n := range scene.Nodes {
		if n.Type == "" {
			return nil, cloneError(ErrInvalidScene, fmt.Sprintf("scene node %d has no type", i), nil, map[string]any{
				"node": n.Name,
			})
		}
	}
	return &scene, nil
}

// Document converts the scene values and links to an engine document.
// Values that are not scalars or groups are dropped.
func (s *Scene) Document() *graph.Document {
	doc := &graph.Document{Links: append([]graph.Link(nil), s.Links...)}
	for _, n := range s.Nodes {
		values := graph.NewValues()
		setSceneValues(values, nil, n.Values)
		doc.Nodes = append(doc.Nodes, graph.NodeEntry{Name: n.Name, Values: values})
	}
	return doc
}

func setSceneValues(values *graph.Values, prefix []string, raw map[string]any) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := append(append([]string(nil), prefix...), k)
		switch v := raw[k].(type) {
		case map[string]any:
			if tn, _ := v[schema.TypeNameKey].(string); tn == schema.ExecutionTypeName {
				values.SetExecution(path)
				continue
			}
			setSceneValues(values, path, v)
		case int:
			values.Set(path, schema.IntValue(int64(v)))
		case int64:
			values.Set(path, schema.IntValue(v))
		case float64:
			values.Set(path, schema.FloatValue(v))
		case bool:
			values.Set(path, schema.BoolValue(v))
		case string:
			values.Set(path, schema.StringValue(v))
		}
	}
}

// Build places the scene nodes on the workspace graph named by the scene
// and applies its values and links. Nodes that already exist are reused.
// Unknown types and unresolvable values or links are reported, not fatal.
func (w *Workspace) Build(s *Scene) (*graph.Graph, graph.ApplyReport) {
	g := w.Graph(s.Graph)
	var placed []error
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.Name != "" {
			if _, ok := g.Node(n.Name); ok {
				continue
			}
		}
		node, err := w.Registry.NewNode(g, n.Type, n.Name)
		if err != nil {
			placed = append(placed, err)
			continue
		}
		n.Name = node.Name()
	}

	report := graph.Apply(g, s.Document())
	report.Skipped = append(placed, report.Skipped...)
	return g, report
}
