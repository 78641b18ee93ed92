package graph

// ApplyReport lists what Apply wrote and what it had to skip.
type ApplyReport struct {
	Values  int
	Links   int
	Skipped []error
}

// Apply writes the values and links of doc onto the live graph. Nodes,
// fields or links that do not match a live socket are skipped.
func Apply(g *Graph, doc *Document) ApplyReport {
	var report ApplyReport
	if doc == nil {
		return report
	}

	for _, entry := range doc.Nodes {
		n, ok := g.Node(entry.Name)
		if !ok {
			report.Skipped = append(report.Skipped, newError(ErrDanglingReference, "document node is not in the graph", map[string]any{
				"node": entry.Name,
			}))
			continue
		}
		if n.schema == nil || entry.Values == nil {
			continue
		}
		for _, f := range n.schema.Fields() {
			v, ok := entry.Values.Lookup(f.Path)
			if !ok {
				continue
			}
			if err := n.SetValue(f.Direction, f.FullName, v); err != nil {
				report.Skipped = append(report.Skipped, err)
				continue
			}
			report.Values++
		}
	}

	for _, l := range doc.Links {
		before := len(g.links)
		if err := g.Connect(l); err != nil {
			report.Skipped = append(report.Skipped, err)
			continue
		}
		if len(g.links) > before {
			report.Links++
		}
	}
	return report
}
