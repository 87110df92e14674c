package materialize

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Optional holds a value that may or may not have been supplied by the caller.
//
// The zero Optional is absent. A present Optional may hold the zero value of V:
// an explicitly supplied empty string is present, and is assigned like any other
// value.
type Optional[V any] struct {
	value   V
	present bool
}

// Some returns a present Optional holding v.
func Some[V any](v V) Optional[V] {
	return Optional[V]{value: v, present: true}
}

// None returns an absent Optional.
func None[V any]() Optional[V] {
	return Optional[V]{}
}

// FromPtr treats a nil pointer as absent.
func FromPtr[V any](p *V) Optional[V] {
	if p == nil {
		return Optional[V]{}
	}
	return Some(*p)
}

// FromSlice treats a nil slice as absent. An empty non-nil slice is present.
func FromSlice[V any](s []V) Optional[[]V] {
	if s == nil {
		return Optional[[]V]{}
	}
	return Some(s)
}

// FromMap treats a nil map as absent. An empty non-nil map is present.
func FromMap[K comparable, V any](m map[K]V) Optional[map[K]V] {
	if m == nil {
		return Optional[map[K]V]{}
	}
	return Some(m)
}

// MapOptional converts a present value with f. Absent stays absent.
func MapOptional[V, U any](o Optional[V], f func(V) U) Optional[U] {
	if !o.present {
		return Optional[U]{}
	}
	return Some(f(o.value))
}

// Where keeps a present value only if keep reports true.
func (o Optional[V]) Where(keep func(V) bool) Optional[V] {
	if !o.present || !keep(o.value) {
		return Optional[V]{}
	}
	return o
}

// Present reports whether a value was supplied.
func (o Optional[V]) Present() bool { return o.present }

// Get returns the value and whether it is present.
func (o Optional[V]) Get() (V, bool) { return o.value, o.present }

// OrElse returns the value if present, otherwise def.
func (o Optional[V]) OrElse(def V) V {
	if o.present {
		return o.value
	}
	return def
}

// Or returns o if present, otherwise other.
func (o Optional[V]) Or(other Optional[V]) Optional[V] {
	if o.present {
		return o
	}
	return other
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Optional[V]) Ptr() *V {
	if !o.present {
		return nil
	}
	v := o.value
	return &v
}

// String renders the value for diagnostics. Absent values render as "<absent>".
func (o Optional[V]) String() string {
	if !o.present {
		return "<absent>"
	}
	return fmt.Sprint(o.value)
}

// UnmarshalYAML decodes a present value. yaml.v3 does not call unmarshalers for
// null nodes, so `key: null` and a missing key both leave the Optional absent.
func (o *Optional[V]) UnmarshalYAML(node *yaml.Node) error {
	var v V
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML emits the value, or null when absent.
func (o Optional[V]) MarshalYAML() (any, error) {
	if !o.present {
		return nil, nil
	}
	return o.value, nil
}

// IsZero lets yaml's omitempty drop absent values.
func (o Optional[V]) IsZero() bool { return !o.present }
