package graph

import (
	"github.com/goliatone/go-nodegraph/schema"
)

// State is the lifecycle position of a node with respect to its schema.
type State int

const (
	StateUninitialized State = iota
	StateLive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLive:
		return "live"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Node is a live node instance. Its behavior is driven by the schema it
// references; there is one Node type for every node kind.
type Node struct {
	name    string
	schema  *schema.NodeSchema
	state   State
	inputs  *Sockets
	outputs *Sockets
}

// NewNode creates an uninitialized node. It gets sockets once placed in a
// graph.
func NewNode(name string, s *schema.NodeSchema) *Node {
	return &Node{
		name:    name,
		schema:  s,
		inputs:  &Sockets{},
		outputs: &Sockets{},
	}
}

func (n *Node) Name() string               { return n.name }
func (n *Node) Schema() *schema.NodeSchema { return n.schema }
func (n *Node) State() State               { return n.state }
func (n *Node) Inputs() *Sockets           { return n.inputs }
func (n *Node) Outputs() *Sockets          { return n.outputs }

// TypeName is the registered type of the node's schema.
func (n *Node) TypeName() string {
	if n.schema == nil {
		return ""
	}
	return n.schema.TypeName()
}

// Sockets returns the collection for dir.
func (n *Node) Sockets(dir schema.Direction) *Sockets {
	if dir == schema.Input {
		return n.inputs
	}
	return n.outputs
}

// Socket looks up a socket by name and direction.
func (n *Node) Socket(name string, dir schema.Direction) (*Socket, bool) {
	return n.Sockets(dir).Get(name)
}

// SetValue writes v on the named socket of direction dir.
func (n *Node) SetValue(dir schema.Direction, name string, v schema.Value) error {
	s, ok := n.Socket(name, dir)
	if !ok {
		return newError(ErrDanglingReference, "socket not found", map[string]any{
			"node":      n.name,
			"socket":    name,
			"direction": dir.String(),
		})
	}
	return s.SetValue(v)
}

func (n *Node) initialize() (Report, error) {
	if n.state != StateUninitialized {
		return Report{}, n.transitionError("initialize")
	}
	report := n.reconcile()
	n.state = StateLive
	return report, nil
}

func (n *Node) refresh(s *schema.NodeSchema) (Report, error) {
	if n.state != StateLive {
		return Report{}, n.transitionError("refresh")
	}
	if s != nil {
		n.schema = s
	}
	return n.reconcile(), nil
}

func (n *Node) destroy() error {
	if n.state != StateLive {
		return n.transitionError("destroy")
	}
	n.state = StateDestroyed
	return nil
}

func (n *Node) reconcile() Report {
	if n.schema == nil {
		return Report{
			Inputs:  Reconcile(nil, n.inputs),
			Outputs: Reconcile(nil, n.outputs),
		}
	}
	return reconcileNode(n, n.schema)
}

func (n *Node) transitionError(action string) error {
	return newError(ErrInvalidTransition, "", map[string]any{
		"node":   n.name,
		"state":  n.state.String(),
		"action": action,
	})
}
