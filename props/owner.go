package props

import (
	"fmt"

	"github.com/delaneyj/propparty/erased"
)

// Owner is an object whose properties can be read and written by name.
type Owner interface {
	GetProperty(name string) (erased.Cell, error)
	SetProperty(name string, value erased.Cell) error
	PropertyNames() []string
}

// Instance pairs an owner with its type's registry.
type Instance[O any] struct {
	registry *Registry[O]
	owner    O
}

var _ Owner = Instance[struct{}]{}

// Wrap adapts owner to the Owner interface using r.
func Wrap[O any](r *Registry[O], owner O) Instance[O] {
	return Instance[O]{registry: r, owner: owner}
}

func (i Instance[O]) GetProperty(name string) (erased.Cell, error) {
	return i.registry.Get(i.owner, name)
}

func (i Instance[O]) SetProperty(name string, value erased.Cell) error {
	return i.registry.Set(i.owner, name, value)
}

func (i Instance[O]) PropertyNames() []string {
	return i.registry.Names()
}

// GetAs reads a property and extracts it as T.
func GetAs[T any](o Owner, name string) (T, error) {
	var zero T
	c, err := o.GetProperty(name)
	if err != nil {
		return zero, err
	}
	v, err := erased.As[T](c)
	if err != nil {
		return zero, fmt.Errorf("get %q: %w", name, err)
	}
	return v, nil
}

// SetAs boxes v and writes it by name.
func SetAs[T any](o Owner, name string, v T) error {
	return o.SetProperty(name, erased.Of(v))
}

// Snapshot reads every property of o.
func Snapshot(o Owner) (map[string]erased.Cell, error) {
	names := o.PropertyNames()
	out := make(map[string]erased.Cell, len(names))
	for _, name := range names {
		c, err := o.GetProperty(name)
		if err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}
