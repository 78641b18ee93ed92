package graph

import (
	"github.com/goliatone/go-nodegraph/schema"
)

// ReconcileResult lists what a reconciliation changed on one direction.
type ReconcileResult struct {
	Added   []string
	Removed []string
}

// Changed reports whether any socket was added or removed.
func (r ReconcileResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Reconcile brings current in line with desired. Sockets named in both keep
// their identity, value and position; stale ones are removed and missing
// ones are appended in desired order. Matched sockets are never reordered,
// even when desired lists them differently.
func Reconcile(desired []schema.SocketSpec, current *Sockets) ReconcileResult {
	var res ReconcileResult

	want := make(map[string]struct{}, len(desired))
	for _, spec := range desired {
		want[spec.Name] = struct{}{}
	}

	for _, name := range current.Names() {
		if _, ok := want[name]; !ok {
			current.remove(name)
			res.Removed = append(res.Removed, name)
		}
	}

	for _, spec := range desired {
		if _, ok := current.Get(spec.Name); ok {
			continue
		}
		current.add(spec)
		res.Added = append(res.Added, spec.Name)
	}
	return res
}

// Report groups the reconciliation results of both directions of a node.
type Report struct {
	Inputs  ReconcileResult
	Outputs ReconcileResult
	// Diagnostics holds fields skipped by the socket mapper.
	Diagnostics []error
}

func (r Report) Changed() bool {
	return r.Inputs.Changed() || r.Outputs.Changed()
}

func reconcileNode(n *Node, s *schema.NodeSchema) Report {
	var report Report
	inputs, diags := s.Sockets(schema.Input)
	report.Diagnostics = append(report.Diagnostics, diags...)
	outputs, diags := s.Sockets(schema.Output)
	report.Diagnostics = append(report.Diagnostics, diags...)

	report.Inputs = Reconcile(inputs, n.inputs)
	report.Outputs = Reconcile(outputs, n.outputs)
	return report
}
