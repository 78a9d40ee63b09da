package props

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/propparty/bindable"
	"github.com/delaneyj/propparty/erased"
)

var (
	ErrNotFound      = errors.New("property not found")
	ErrDuplicateName = errors.New("duplicate property name")
	ErrReadOnly      = errors.New("property is read-only")
	ErrTypeMismatch  = erased.ErrTypeMismatch
)

type accessor[O any] struct {
	name string
	typ  reflect.Type
	get  func(O) (erased.Cell, error)
	set  func(O, erased.Cell) error
}

// Registry maps property names to accessors for one owner type. It holds no
// values: every accessor reaches into the owner passed at call time, so one
// Registry serves every instance of O.
type Registry[O any] struct {
	mu     sync.RWMutex
	byName map[string]*accessor[O]
	names  []string
}

func NewRegistry[O any]() *Registry[O] {
	return &Registry[O]{
		byName: map[string]*accessor[O]{},
	}
}

// Register adds a property backed by a getter and setter. A nil setter makes
// the property read-only. Registering the same name again replaces the
// accessors as long as the type is unchanged; a different type fails with
// ErrDuplicateName.
func Register[O, T any](r *Registry[O], name string, get func(O) T, set func(O, T)) error {
	if get == nil {
		return fmt.Errorf("register %q: nil getter", name)
	}
	a := &accessor[O]{
		name: name,
		typ:  reflect.TypeFor[T](),
		get: func(owner O) (erased.Cell, error) {
			return erased.Of(get(owner)), nil
		},
	}
	if set != nil {
		a.set = func(owner O, c erased.Cell) error {
			v, err := erased.As[T](c)
			if err != nil {
				return err
			}
			set(owner, v)
			return nil
		}
	}
	return r.add(a)
}

// RegisterProperty exposes a typed slot. Writes by name go through the
// slot's Set, and with it through any custom setter.
func RegisterProperty[O, T any](r *Registry[O], name string, slot func(O) *Property[T]) error {
	if slot == nil {
		return fmt.Errorf("register %q: nil slot", name)
	}
	return Register(r, name,
		func(owner O) T {
			return slot(owner).Get()
		},
		func(owner O, v T) {
			slot(owner).Set(v)
		},
	)
}

// RegisterValue exposes a reactive value. Writes by name are plain
// assignments and detach any binding when the value changes; reads
// recompute if dirty.
func RegisterValue[O any, T comparable](r *Registry[O], name string, slot func(O) *bindable.Value[T]) error {
	if slot == nil {
		return fmt.Errorf("register %q: nil slot", name)
	}
	return r.add(&accessor[O]{
		name: name,
		typ:  reflect.TypeFor[T](),
		get: func(owner O) (erased.Cell, error) {
			v, err := slot(owner).Get()
			if err != nil {
				return erased.Cell{}, err
			}
			return erased.Of(v), nil
		},
		set: func(owner O, c erased.Cell) error {
			v, err := erased.As[T](c)
			if err != nil {
				return err
			}
			slot(owner).Assign(v)
			return nil
		},
	})
}

func (r *Registry[O]) add(a *accessor[O]) error {
	if a.name == "" {
		return errors.New("register: empty property name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byName[a.name]; ok {
		if prev.typ != a.typ {
			return fmt.Errorf("%w: %q is %s, cannot register as %s", ErrDuplicateName, a.name, prev.typ, a.typ)
		}
		r.byName[a.name] = a
		return nil
	}
	r.byName[a.name] = a
	r.names = append(r.names, a.name)
	return nil
}

func (r *Registry[O]) lookup(name string) (*accessor[O], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return a, nil
}

// Get reads the named property of owner.
func (r *Registry[O]) Get(owner O, name string) (erased.Cell, error) {
	a, err := r.lookup(name)
	if err != nil {
		return erased.Cell{}, err
	}
	c, err := a.get(owner)
	if err != nil {
		return erased.Cell{}, fmt.Errorf("get %q: %w", name, err)
	}
	return c, nil
}

// Set writes the named property of owner. The value's type must match the
// registered type exactly; on any error the property keeps its old value.
func (r *Registry[O]) Set(owner O, name string, value erased.Cell) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	if a.set == nil {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	if value.Type() != a.typ {
		return fmt.Errorf("set %q: %w", name, erased.Mismatch(a.typ, value.Type()))
	}
	if err := a.set(owner, value); err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	return nil
}

// Names lists properties in registration order.
func (r *Registry[O]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// Type returns the static type name was registered with.
func (r *Registry[O]) Type(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return a.typ, true
}

func (r *Registry[O]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Fingerprint hashes the sorted name:type list. It changes whenever a
// property is added or its type changes, and is independent of registration
// order.
func (r *Registry[O]) Fingerprint() uint64 {
	r.mu.RLock()
	sigs := make([]string, 0, len(r.byName))
	for name, a := range r.byName {
		sigs = append(sigs, name+":"+a.typ.String())
	}
	r.mu.RUnlock()

	slices.Sort(sigs)
	d := xxhash.New()
	for _, sig := range sigs {
		d.WriteString(sig)
		d.WriteString("\n")
	}
	return d.Sum64()
}
