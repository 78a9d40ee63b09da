package bindable

import (
	"errors"
	"fmt"
	"slices"
	"weak"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrDetached is returned by Bind when the expression assigned its own value,
// which drops the binding it was being evaluated for.
var ErrDetached = errors.New("binding detached by its own expression")

// dependentRef is a non-owning back reference to a downstream node.
type dependentRef interface {
	get() Dependent
}

type weakRef[T any, PT interface {
	*T
	Dependent
}] struct {
	p weak.Pointer[T]
}

func (r weakRef[T, PT]) get() Dependent {
	if p := r.p.Value(); p != nil {
		return PT(p)
	}
	return nil
}

type watcher[T any] struct {
	fn func(T)
}

// Value holds either a plain value or a binding expression that recomputes
// it from other values. Reads made by the expression are discovered while it
// runs; there is no explicit dependency list.
//
// Assigning a different plain value to a bound Value detaches the binding:
// the last write wins, whether it is Assign or Bind.
type Value[T comparable] struct {
	ctx        *Context
	current    T
	dirty      bool
	expr       func() (T, error)
	sources    []source
	dependents []dependentRef
	watchers   []*watcher[T]
}

func New[T comparable](ctx *Context, value T) *Value[T] {
	if ctx == nil {
		panic("bindable: nil context")
	}
	return &Value[T]{
		ctx:     ctx,
		current: value,
	}
}

// Assign sets a plain value and drops the binding, if any. Assigning a value
// equal to a trusted cached one is a no-op: the binding stays and dependents
// are not marked dirty. A dirty bound value has no trusted cache, so the
// assignment always detaches it.
func (v *Value[T]) Assign(next T) {
	stale := v.expr != nil && v.dirty
	if next == v.current && !stale {
		return
	}
	if v.expr != nil {
		v.detach()
	}
	if next == v.current {
		// dependents were marked when v went dirty
		return
	}
	v.current = next
	v.runWatchers()
	v.notify()
}

// Bind attaches expr and evaluates it once. See BindFunc.
func (v *Value[T]) Bind(expr func() T) error {
	if expr == nil {
		panic("bindable: nil expression")
	}
	return v.BindFunc(func() (T, error) {
		return expr(), nil
	})
}

// BindFunc attaches expr and evaluates it once, recording every Value it
// reads as an upstream source. If the evaluation fails the previous
// expression, cached value and dirty flag are kept and the error is returned.
//
// Dependents are marked dirty before expr runs, so a binding that closes a
// cycle through them is caught. When the evaluation fails they stay dirty and
// recompute against the restored value on their next read.
//
// If expr assigns v itself, the assignment wins and ErrDetached is returned.
func (v *Value[T]) BindFunc(expr func() (T, error)) error {
	if expr == nil {
		panic("bindable: nil expression")
	}

	prevExpr, prevDirty := v.expr, v.dirty
	v.expr = expr
	v.dirty = true
	if !prevDirty {
		v.notify()
	}

	restore := true
	defer func() {
		if restore {
			v.expr, v.dirty = prevExpr, prevDirty
		}
	}()

	if err := v.recompute(); err != nil {
		v.ctx.debug("bind failed", "err", err)
		return fmt.Errorf("bind: %w", err)
	}
	restore = false
	if v.expr == nil {
		return fmt.Errorf("bind: %w", ErrDetached)
	}
	return nil
}

// Read returns the current value, recomputing it first if it is dirty.
// Inside another value's recomputation the read is recorded as a dependency
// and any failure is handed to that recomputation. Outside of one, a failed
// recomputation panics; use Get to receive the error instead.
func (v *Value[T]) Read() T {
	value, charged, err := v.get()
	if err != nil && !charged {
		if v.ctx.Depth() == 0 {
			panic(err)
		}
		v.ctx.fail(err)
	}
	return value
}

// Get is Read with the recomputation error returned to the caller. Reading
// v while a value of another Context is being recomputed on this goroutine
// fails that recomputation and returns ErrForeignContext.
func (v *Value[T]) Get() (T, error) {
	value, _, err := v.get()
	return value, err
}

// get reports charged when err was already recorded on the recomputation
// that made the read.
func (v *Value[T]) get() (T, bool, error) {
	if other := v.ctx.foreign(); other != nil {
		err := fmt.Errorf("%w: %T", ErrForeignContext, v)
		other.fail(err)
		return v.current, true, err
	}
	v.ctx.track(v)
	if v.dirty && v.expr != nil {
		if err := v.recompute(); err != nil {
			return v.current, false, err
		}
	}
	return v.current, false, nil
}

// Peek returns the cached value without recomputing or tracking.
func (v *Value[T]) Peek() T {
	return v.current
}

func (v *Value[T]) IsBound() bool {
	return v.expr != nil
}

func (v *Value[T]) IsDirty() bool {
	return v.dirty
}

// MarkDirty flags a bound value as stale and passes the flag on to its
// dependents. Plain values have nothing to recompute and ignore it.
func (v *Value[T]) MarkDirty() {
	if v.expr == nil || v.dirty {
		return
	}
	v.dirty = true
	v.notify()
}

// OnChange registers fn to run with the new value whenever it changes,
// either by assignment or by a recomputation producing a different result.
func (v *Value[T]) OnChange(fn func(T)) (stop func()) {
	w := &watcher[T]{fn: fn}
	v.watchers = append(v.watchers, w)
	return func() {
		v.watchers = slices.DeleteFunc(v.watchers, func(other *watcher[T]) bool {
			return other == w
		})
	}
}

// Dispose drops the binding and every link to and from this value.
func (v *Value[T]) Dispose() {
	v.detach()
	v.dependents = nil
	v.watchers = nil
}

// Connect makes dst a dependent of src: dst is marked dirty whenever src
// changes. src only holds a weak reference to dst.
func Connect[T comparable, D any, PD interface {
	*D
	Dependent
}](src *Value[T], dst PD) {
	src.addDependent(weakRef[D, PD]{p: weak.Make((*D)(dst))})
}

func (v *Value[T]) ref() dependentRef {
	return weakRef[Value[T], *Value[T]]{p: weak.Make(v)}
}

func (v *Value[T]) addDependent(ref dependentRef) {
	d := ref.get()
	if d == nil {
		return
	}
	for _, existing := range v.dependents {
		if existing.get() == d {
			return
		}
	}
	v.dependents = append(v.dependents, ref)
}

func (v *Value[T]) removeDependent(d Dependent) {
	v.dependents = slices.DeleteFunc(v.dependents, func(ref dependentRef) bool {
		got := ref.get()
		return got == nil || got == d
	})
}

// notify marks dependents dirty in registration order, pruning the ones
// that were garbage collected.
func (v *Value[T]) notify() {
	if len(v.dependents) == 0 {
		return
	}
	pruned := false
	for _, ref := range slices.Clone(v.dependents) {
		d := ref.get()
		if d == nil {
			pruned = true
			continue
		}
		d.MarkDirty()
	}
	if pruned {
		v.dependents = slices.DeleteFunc(v.dependents, func(ref dependentRef) bool {
			return ref.get() == nil
		})
	}
}

func (v *Value[T]) runWatchers() {
	for _, w := range slices.Clone(v.watchers) {
		w.fn(v.current)
	}
}

func (v *Value[T]) recompute() error {
	expr := v.expr
	tok, err := v.ctx.Enter(v)
	if err != nil {
		return err
	}
	defer tok.Release()

	next, err := expr()
	if err == nil {
		err = tok.Err()
	}
	if err != nil {
		v.ctx.debug("recompute failed", "err", err)
		return err
	}

	// assigned from inside its own expression
	if v.expr == nil {
		return nil
	}

	v.relink(tok.reads())
	v.dirty = false
	v.ctx.debug("recomputed", "sources", len(v.sources))
	if next != v.current {
		v.current = next
		v.runWatchers()
	}
	return nil
}

// relink replaces the upstream edges with the reads of the last evaluation.
// Edges that are still exercised keep their place in the upstream's
// dependent order.
func (v *Value[T]) relink(reads []source) {
	next := mapset.NewThreadUnsafeSet(reads...)
	prev := mapset.NewThreadUnsafeSet(v.sources...)

	for _, s := range v.sources {
		if !next.Contains(s) {
			s.removeDependent(v)
		}
	}
	ref := v.ref()
	for _, s := range reads {
		if !prev.Contains(s) && s != source(v) {
			s.addDependent(ref)
		}
	}
	v.sources = slices.Clone(reads)
}

func (v *Value[T]) detach() {
	for _, s := range v.sources {
		s.removeDependent(v)
	}
	v.sources = nil
	v.expr = nil
	v.dirty = false
}
