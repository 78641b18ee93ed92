package schema

// SocketKind is the editor-side type of a socket.
type SocketKind int

const (
	KindInvalid SocketKind = iota
	ExecutionSocket
	IntSocket
	FloatSocket
	BoolSocket
	StringSocket
)

func (k SocketKind) String() string {
	switch k {
	case ExecutionSocket:
		return "NodeSocketExecution"
	case IntSocket:
		return "NodeSocketInt"
	case FloatSocket:
		return "NodeSocketFloat"
	case BoolSocket:
		return "NodeSocketBool"
	case StringSocket:
		return "NodeSocketString"
	default:
		return "NodeSocketInvalid"
	}
}

// Color is an RGBA connector color in the 0..1 range.
type Color [4]float32

var socketColors = map[SocketKind]Color{
	ExecutionSocket: {1.0, 0.0, 1.0, 1.0},
	IntSocket:       {0.35, 0.55, 0.36, 1.0},
	FloatSocket:     {0.63, 0.63, 0.63, 1.0},
	BoolSocket:      {0.8, 0.65, 0.84, 1.0},
	StringSocket:    {0.44, 0.7, 1.0, 1.0},
}

// Color returns the connector color used to draw sockets of kind k.
func (k SocketKind) Color() Color {
	if c, ok := socketColors[k]; ok {
		return c
	}
	return Color{0, 0, 0, 1}
}

// Accepts reports whether a link from a socket of kind from may end on a
// socket of kind k. Execution pairs only with execution, Int and Float
// convert into each other, every other kind must match.
func (k SocketKind) Accepts(from SocketKind) bool {
	if k == KindInvalid || from == KindInvalid {
		return false
	}
	if k == from {
		return true
	}
	numeric := func(s SocketKind) bool { return s == IntSocket || s == FloatSocket }
	return numeric(k) && numeric(from)
}

// CarriesValue is false for execution sockets, which only express sequencing.
func (k SocketKind) CarriesValue() bool {
	return k != ExecutionSocket && k != KindInvalid
}

// ValueType is the primitive stored by sockets of kind k.
func (k SocketKind) ValueType() PrimitiveType {
	switch k {
	case IntSocket:
		return TypeInt
	case FloatSocket:
		return TypeFloat
	case BoolSocket:
		return TypeBool
	case StringSocket:
		return TypeString
	case ExecutionSocket:
		return TypeExecution
	}
	return TypeInvalid
}

// KindFor maps a primitive type to its socket kind.
func KindFor(t PrimitiveType) (SocketKind, error) {
	switch t {
	case TypeExecution:
		return ExecutionSocket, nil
	case TypeInt:
		return IntSocket, nil
	case TypeFloat:
		return FloatSocket, nil
	case TypeBool:
		return BoolSocket, nil
	case TypeString:
		return StringSocket, nil
	}
	return KindInvalid, diagnostic(ErrUnsupportedType, "", map[string]any{"type": t.String()})
}

// SocketSpec is one socket a node should expose.
type SocketSpec struct {
	Name    string
	Kind    SocketKind
	Default Value
}

// DesiredSockets maps the fields with direction dir to socket specs, in
// declaration order. Execution fields were already collapsed onto their
// group key by Parse, so the socket takes the group's name. Fields with an
// unmappable type are skipped and reported.
func DesiredSockets(fields []FieldDescriptor, dir Direction) ([]SocketSpec, []error) {
	var (
		specs []SocketSpec
		diags []error
	)
	for _, f := range fields {
		if f.Direction != dir {
			continue
		}
		kind, err := KindFor(f.Type)
		if err != nil {
			diags = append(diags, err)
			continue
		}
		spec := SocketSpec{Name: f.FullName, Kind: kind}
		if kind.CarriesValue() {
			spec.Default = f.Default
			if spec.Default.IsEmpty() {
				spec.Default = ZeroValue(kind.ValueType())
			}
		}
		specs = append(specs, spec)
	}
	return specs, diags
}
