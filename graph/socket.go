package graph

import (
	"github.com/goliatone/go-nodegraph/schema"
)

// Socket is a connection point on a live node. Value-bearing sockets always
// hold a value of their kind's primitive type.
type Socket struct {
	name  string
	kind  schema.SocketKind
	value schema.Value
}

func newSocket(spec schema.SocketSpec) *Socket {
	s := &Socket{name: spec.Name, kind: spec.Kind}
	if spec.Kind.CarriesValue() {
		s.value = schema.ZeroValue(spec.Kind.ValueType())
		if v, ok := spec.Default.Convert(spec.Kind.ValueType()); ok {
			s.value = v
		}
	}
	return s
}

func (s *Socket) Name() string            { return s.name }
func (s *Socket) Kind() schema.SocketKind { return s.kind }

// Value returns the current scalar. Execution sockets report false.
func (s *Socket) Value() (schema.Value, bool) {
	if !s.kind.CarriesValue() {
		return schema.Value{}, false
	}
	return s.value, true
}

// SetValue stores v, converting Int and Float into each other as needed.
func (s *Socket) SetValue(v schema.Value) error {
	if !s.kind.CarriesValue() {
		return newError(ErrValueNotAssignable, "execution sockets hold no value", map[string]any{
			"socket": s.name,
		})
	}
	converted, ok := v.Convert(s.kind.ValueType())
	if !ok {
		return newError(ErrValueNotAssignable, "", map[string]any{
			"socket":     s.name,
			"kind":       s.kind.String(),
			"value_type": v.Type().String(),
		})
	}
	s.value = converted
	return nil
}

// Sockets is the ordered socket collection of one node direction.
type Sockets struct {
	items []*Socket
}

func (l *Sockets) Len() int { return len(l.items) }

func (l *Sockets) At(i int) *Socket { return l.items[i] }

// Get finds a socket by name.
func (l *Sockets) Get(name string) (*Socket, bool) {
	if l == nil {
		return nil, false
	}
	for _, s := range l.items {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// Names lists socket names in order.
func (l *Sockets) Names() []string {
	out := make([]string, len(l.items))
	for i, s := range l.items {
		out[i] = s.name
	}
	return out
}

// All returns the sockets in order. The slice is a copy; the sockets are not.
func (l *Sockets) All() []*Socket {
	out := make([]*Socket, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Sockets) add(spec schema.SocketSpec) *Socket {
	s := newSocket(spec)
	l.items = append(l.items, s)
	return s
}

func (l *Sockets) remove(name string) bool {
	for i, s := range l.items {
		if s.name == name {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}
