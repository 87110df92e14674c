// Package materialize builds remote request values from sparse, optionally nested
// caller input and invokes a single remote operation with them.
//
// A request is described as an ordered list of bindings. A field binding assigns one
// optional value into the request; a group binding populates one nested sub-object and
// attaches it only if at least one member was assigned. Absent values never trigger an
// assignment, so SDK defaults are never overwritten by spurious zero values and empty
// configuration blocks are never sent to the service.
package materialize

// Binding applies caller input to a request of type R.
//
// Apply reports whether it assigned anything. Implementations must not assign when
// the input is absent.
type Binding[R any] interface {
	// Name identifies the binding in diagnostics and requirement checks.
	Name() string

	// Apply assigns present input into r and reports whether it did.
	Apply(r *R) bool
}

type field[R, V any] struct {
	name   string
	value  Optional[V]
	assign func(*R, V)
}

// Field returns a binding that calls assign with the value when it is present.
func Field[R, V any](name string, value Optional[V], assign func(*R, V)) Binding[R] {
	return &field[R, V]{name: name, value: value, assign: assign}
}

func (f *field[R, V]) Name() string { return f.name }

func (f *field[R, V]) Apply(r *R) bool {
	v, ok := f.value.Get()
	if !ok {
		return false
	}
	f.assign(r, v)
	return true
}

type group[R, S any] struct {
	name    string
	attach  func(*R, *S)
	members []Binding[S]
}

// Group returns a binding that populates a nested *S from members.
//
// A fresh *S is built on every Apply. When no member assigns, attach is called with
// nil so the request carries the absent representation rather than an empty block.
// Groups nest: a Group is itself a Binding of its parent type.
func Group[R, S any](name string, attach func(*R, *S), members ...Binding[S]) Binding[R] {
	return &group[R, S]{name: name, attach: attach, members: members}
}

func (g *group[R, S]) Name() string { return g.name }

func (g *group[R, S]) Apply(r *R) bool {
	sub := new(S)
	populated := false
	for _, m := range g.members {
		if m.Apply(sub) {
			populated = true
		}
	}
	if !populated {
		g.attach(r, nil)
		return false
	}
	g.attach(r, sub)
	return true
}

// Materialize builds a fresh request from bindings, in order.
func Materialize[R any](bindings ...Binding[R]) *R {
	req := new(R)
	for _, b := range bindings {
		b.Apply(req)
	}
	return req
}

// Applied returns the names of the top-level bindings that assigned into a scratch
// request. It is used for debug logging.
func Applied[R any](bindings ...Binding[R]) []string {
	scratch := new(R)
	names := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Apply(scratch) {
			names = append(names, b.Name())
		}
	}
	return names
}
