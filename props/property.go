package props

// Property is a typed per-instance slot. The zero value is an unset slot
// holding the zero T.
//
// A slot may carry a custom setter. Every write, typed or by name, then
// calls the setter exactly once, and a write made by the setter itself goes
// straight to storage:
//
//	func (t *Train) setSpeed(v int) { t.Speed.Set(min(v, 200)) }
//	t.Speed.UseSetter(t.setSpeed)
type Property[T any] struct {
	value  T
	isSet  bool
	setter func(T)

	// held for the duration of a setter call on this slot only
	inSetter bool
}

func (p *Property[T]) Get() T {
	return p.value
}

// IsSet reports whether the slot was ever written.
func (p *Property[T]) IsSet() bool {
	return p.isSet
}

// UseSetter routes all writes through fn. Passing nil removes it.
func (p *Property[T]) UseSetter(fn func(T)) {
	p.setter = fn
}

func (p *Property[T]) Set(v T) {
	if p.setter != nil && !p.inSetter {
		p.inSetter = true
		defer func() {
			p.inSetter = false
		}()
		p.setter(v)
		return
	}
	p.value = v
	p.isSet = true
}
