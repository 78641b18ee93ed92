package graph

import (
	"github.com/goliatone/go-nodegraph/schema"
)

// SerializeReport collects what serialization skipped or could not propagate.
type SerializeReport struct {
	// Skipped holds dangling links and fields without a live socket.
	Skipped []error
	// Propagated counts destination sockets whose value changed.
	Propagated int
}

// Serialize builds the GraphDocument for g. Before encoding, the value of
// every source socket is copied along its links into the destination socket,
// so serialization mutates destination values. Dangling links and fields
// are left out of the document and reported, never returned as errors.
func Serialize(g *Graph) (*Document, SerializeReport) {
	var report SerializeReport
	report.Propagated, report.Skipped = Propagate(g)

	doc := &Document{}
	for _, l := range g.links {
		if _, _, err := g.resolve(l); err != nil {
			continue
		}
		doc.Links = append(doc.Links, l)
	}

	for _, n := range g.nodes {
		values, skipped := SerializeNode(n)
		report.Skipped = append(report.Skipped, skipped...)
		doc.Nodes = append(doc.Nodes, NodeEntry{Name: n.name, Values: values})
	}
	return doc, report
}

// SerializeNode starts from n's schema document, so groups, metadata and
// entries that are not fields keep their shape, then writes the value of
// every field's live socket under its original prefixed key path.
// Execution fields become the type_name marker. A field without a live
// socket keeps its schema default and is reported.
func SerializeNode(n *Node) (*Values, []error) {
	if n.schema == nil {
		return NewValues(), nil
	}
	values := schemaValues(n.schema)
	var skipped []error
	for _, f := range n.schema.Fields() {
		socket, ok := n.Socket(f.FullName, f.Direction)
		if !ok {
			skipped = append(skipped, newError(ErrDanglingReference, "field has no live socket", map[string]any{
				"node":      n.name,
				"field":     f.FullName,
				"direction": f.Direction.String(),
			}))
			continue
		}
		if f.Type == schema.TypeExecution || !socket.Kind().CarriesValue() {
			values.SetExecution(f.Path)
			continue
		}
		if v, ok := socket.Value(); ok {
			values.Set(f.Path, v)
		}
	}
	return values, skipped
}

// Propagate copies each link's source value into its destination socket.
// Destinations are always inputs and sources always outputs, so one pass
// settles every link and repeating it changes nothing. Links between kinds
// that cannot convert are reported and skipped.
func Propagate(g *Graph) (int, []error) {
	var (
		changed int
		skipped []error
	)
	for _, l := range g.links {
		from, to, err := g.resolve(l)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		src, ok := from.Value()
		if !ok {
			continue
		}
		dst, ok := to.Value()
		if !ok {
			continue
		}
		converted, ok := src.Convert(to.Kind().ValueType())
		if !ok {
			skipped = append(skipped, newError(ErrIncompatiblePins, "cannot propagate value", map[string]any{
				"link": l.String(),
				"from": from.Kind().String(),
				"to":   to.Kind().String(),
			}))
			continue
		}
		if dst.Equal(converted) {
			continue
		}
		to.value = converted
		changed++
	}
	return changed, skipped
}
