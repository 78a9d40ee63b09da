package bindable_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/delaneyj/propparty/bindable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDependent struct {
	count int
}

func (c *countingDependent) MarkDirty() {
	c.count++
}

type orderedDependent struct {
	name string
	log  *[]string
}

func (o *orderedDependent) MarkDirty() {
	*o.log = append(*o.log, o.name)
}

func TestValue(t *testing.T) {
	t.Run("plain value", func(t *testing.T) {
		ctx := bindable.NewContext()
		speed := bindable.New(ctx, 0)
		assert.Equal(t, 0, speed.Read())
		speed.Assign(10)
		assert.Equal(t, 10, speed.Read())
		assert.False(t, speed.IsBound())
		assert.False(t, speed.IsDirty())
	})

	/*
	   a  b
	   | /
	   c
	*/
	t.Run("two sources", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 7)
		b := bindable.New(ctx, 1)
		c := bindable.New(ctx, 0)
		callCount := 0
		require.NoError(t, c.Bind(func() int {
			callCount++
			return a.Read() * b.Read()
		}))

		assert.Equal(t, 7, c.Read())

		a.Assign(2)
		assert.Equal(t, 2, c.Read())

		b.Assign(3)
		assert.Equal(t, 6, c.Read())

		assert.Equal(t, 3, callCount)
		c.Read()
		assert.Equal(t, 3, callCount)
	})

	t.Run("equality suppression", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 7)
		counter := &countingDependent{}
		bindable.Connect(a, counter)

		a.Assign(7)
		assert.Equal(t, 0, counter.count)
		a.Assign(8)
		assert.Equal(t, 1, counter.count)
		a.Assign(8)
		assert.Equal(t, 1, counter.count)
		runtime.KeepAlive(counter)
	})

	/*
	   a
	   |
	   b
	*/
	t.Run("lazy recomputation", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 1)
		b := bindable.New(ctx, 0)
		callCount := 0
		require.NoError(t, b.Bind(func() int {
			callCount++
			return a.Read() + 1
		}))
		assert.Equal(t, 2, b.Peek())
		assert.Equal(t, 1, callCount)

		a.Assign(41)
		assert.True(t, b.IsDirty())
		assert.Equal(t, 2, b.Peek())
		assert.Equal(t, 1, callCount)

		assert.Equal(t, 42, b.Read())
		assert.Equal(t, 2, callCount)
		assert.False(t, b.IsDirty())

		b.Read()
		assert.Equal(t, 2, callCount)
	})

	/*
	   a  b
	   | /
	   c
	   |
	   d
	*/
	t.Run("dependent bound values", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 7)
		b := bindable.New(ctx, 1)

		c := bindable.New(ctx, 0)
		callCount1 := 0
		require.NoError(t, c.Bind(func() int {
			callCount1++
			return a.Read() * b.Read()
		}))

		d := bindable.New(ctx, 0)
		callCount2 := 0
		require.NoError(t, d.Bind(func() int {
			callCount2++
			return c.Read() + 1
		}))

		assert.Equal(t, 8, d.Read())
		assert.Equal(t, 1, callCount1)
		assert.Equal(t, 1, callCount2)

		a.Assign(3)
		assert.True(t, c.IsDirty())
		assert.True(t, d.IsDirty())
		assert.Equal(t, 4, d.Read())
		assert.Equal(t, 2, callCount1)
		assert.Equal(t, 2, callCount2)
	})

	/*
	   flag  a  c
	     \   |  /  (reads a or c depending on flag)
	        d
	*/
	t.Run("dynamic dependency re-derivation", func(t *testing.T) {
		ctx := bindable.NewContext()
		flag := bindable.New(ctx, true)
		a := bindable.New(ctx, 1)
		c := bindable.New(ctx, 2)
		d := bindable.New(ctx, 0)
		require.NoError(t, d.Bind(func() int {
			if flag.Read() {
				return a.Read()
			}
			return c.Read()
		}))
		assert.Equal(t, 1, d.Read())

		c.Assign(20)
		assert.False(t, d.IsDirty())
		a.Assign(10)
		assert.True(t, d.IsDirty())
		assert.Equal(t, 10, d.Read())

		flag.Assign(false)
		assert.Equal(t, 20, d.Read())

		a.Assign(100)
		assert.False(t, d.IsDirty())
		c.Assign(200)
		assert.True(t, d.IsDirty())
		assert.Equal(t, 200, d.Read())
	})

	t.Run("cycle detection", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 0)
		b := bindable.New(ctx, 5)
		require.NoError(t, a.Bind(func() int {
			return b.Read()
		}))
		assert.Equal(t, 5, a.Read())

		err := b.Bind(func() int {
			return a.Read()
		})
		require.ErrorIs(t, err, bindable.ErrCyclicBinding)

		assert.False(t, b.IsBound())
		assert.False(t, b.IsDirty())
		assert.Equal(t, 5, b.Peek())
		assert.Equal(t, 0, ctx.Depth())

		// the first binding still works
		b.Assign(6)
		assert.Equal(t, 6, a.Read())
	})

	t.Run("self reference is a cycle", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 1)
		err := a.Bind(func() int {
			return a.Read() + 1
		})
		assert.ErrorIs(t, err, bindable.ErrCyclicBinding)
		assert.Equal(t, 1, a.Read())
	})

	t.Run("assignment detaches binding", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 1)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.Bind(func() int {
			return a.Read() * 10
		}))
		assert.Equal(t, 10, b.Read())

		b.Assign(10)
		assert.True(t, b.IsBound())

		b.Assign(3)
		assert.False(t, b.IsBound())
		a.Assign(2)
		assert.False(t, b.IsDirty())
		assert.Equal(t, 3, b.Read())
	})

	/*
	   a
	   |
	   b (assigned while dirty)
	   |
	   c
	*/
	t.Run("assigning a dirty value detaches it", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 1)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.Bind(func() int {
			return a.Read() + 1
		}))
		c := bindable.New(ctx, 0)
		require.NoError(t, c.Bind(func() int {
			return b.Read() * 10
		}))
		assert.Equal(t, 2, b.Peek())

		a.Assign(41)
		assert.True(t, b.IsDirty())

		// equal to the stale cache, still an explicit write
		b.Assign(2)
		assert.False(t, b.IsBound())
		assert.False(t, b.IsDirty())
		assert.Equal(t, 2, b.Read())
		assert.Equal(t, 20, c.Read())

		a.Assign(7)
		assert.Equal(t, 2, b.Read())
		assert.Equal(t, 20, c.Read())
	})

	t.Run("expression assigning its own value", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 0)
		err := a.Bind(func() int {
			a.Assign(5)
			return 1
		})
		require.ErrorIs(t, err, bindable.ErrDetached)
		assert.False(t, a.IsBound())
		assert.Equal(t, 5, a.Read())
		assert.Equal(t, 0, ctx.Depth())
	})

	/*
	   a
	   |
	   b (failed rebind)
	   |
	   c
	*/
	t.Run("failed bind leaves dependents dirty", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 2)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.Bind(func() int {
			return a.Read() + 1
		}))
		callCount := 0
		c := bindable.New(ctx, 0)
		require.NoError(t, c.Bind(func() int {
			callCount++
			return b.Read() * 2
		}))
		assert.Equal(t, 1, callCount)

		err := b.BindFunc(func() (int, error) {
			return 0, errors.New("boom")
		})
		require.Error(t, err)
		assert.False(t, b.IsDirty())
		assert.True(t, c.IsDirty())

		assert.Equal(t, 6, c.Read())
		assert.Equal(t, 2, callCount)
		assert.False(t, c.IsDirty())
	})

	t.Run("values of another context", func(t *testing.T) {
		c1 := bindable.NewContext()
		c2 := bindable.NewContext()
		a := bindable.New(c1, 1)
		b := bindable.New(c2, 0)

		err := b.Bind(func() int {
			return a.Read() * 10
		})
		require.ErrorIs(t, err, bindable.ErrForeignContext)
		assert.False(t, b.IsBound())
		assert.Equal(t, 0, b.Peek())
		assert.Equal(t, 0, c1.Depth())
		assert.Equal(t, 0, c2.Depth())

		// a foreign read deeper in the graph fails the outer read too
		foreign := false
		w := bindable.New(c2, 0)
		require.NoError(t, w.Bind(func() int {
			if foreign {
				return a.Read()
			}
			return 1
		}))
		x := bindable.New(c2, 0)
		require.NoError(t, x.Bind(func() int {
			return w.Read() + 1
		}))
		assert.Equal(t, 2, x.Read())

		foreign = true
		w.MarkDirty()
		_, err = x.Get()
		assert.ErrorIs(t, err, bindable.ErrForeignContext)
		assert.True(t, x.IsDirty())

		// outside any recomputation every context reads freely
		a.Assign(5)
		assert.Equal(t, 5, a.Read())
		foreign = false
		assert.Equal(t, 2, x.Read())
	})

	t.Run("failed bind keeps previous state", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 2)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.Bind(func() int {
			return a.Read() + 1
		}))

		boom := errors.New("boom")
		err := b.BindFunc(func() (int, error) {
			return 0, boom
		})
		require.ErrorIs(t, err, boom)
		assert.True(t, b.IsBound())
		assert.False(t, b.IsDirty())
		assert.Equal(t, 3, b.Peek())

		a.Assign(4)
		assert.Equal(t, 5, b.Read())
	})

	t.Run("panicking expression releases context", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 0)
		assert.Panics(t, func() {
			_ = a.Bind(func() int {
				panic("nope")
			})
		})
		assert.Equal(t, 0, ctx.Depth())
		_, ok := ctx.Current()
		assert.False(t, ok)
		assert.False(t, a.IsBound())
		assert.False(t, a.IsDirty())
	})

	t.Run("get reports failures at top level", func(t *testing.T) {
		ctx := bindable.NewContext()
		fail := false
		boom := errors.New("boom")
		a := bindable.New(ctx, 1)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.BindFunc(func() (int, error) {
			if fail {
				return 0, boom
			}
			return a.Read(), nil
		}))

		fail = true
		a.Assign(2)
		v, err := b.Get()
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, v)
		assert.True(t, b.IsDirty())
		assert.Panics(t, func() { b.Read() })

		fail = false
		v, err = b.Get()
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	/*
	   s
	   |
	   a
	   | \
	   b  c
	    \ |
	      d
	*/
	t.Run("diamond", func(t *testing.T) {
		ctx := bindable.NewContext()
		s := bindable.New(ctx, 1)
		a := bindable.New(ctx, 0)
		b := bindable.New(ctx, 0)
		c := bindable.New(ctx, 0)
		d := bindable.New(ctx, 0)
		require.NoError(t, a.Bind(func() int { return s.Read() }))
		require.NoError(t, b.Bind(func() int { return a.Read() * 2 }))
		require.NoError(t, c.Bind(func() int { return a.Read() * 3 }))
		callCount := 0
		require.NoError(t, d.Bind(func() int {
			callCount++
			return b.Read() + c.Read()
		}))

		assert.Equal(t, 5, d.Read())
		assert.Equal(t, 1, callCount)
		s.Assign(2)
		assert.Equal(t, 10, d.Read())
		assert.Equal(t, 2, callCount)
		s.Assign(3)
		assert.Equal(t, 15, d.Read())
		assert.Equal(t, 3, callCount)
	})

	t.Run("dependents notified in registration order", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 0)
		var log []string
		first := &orderedDependent{name: "first", log: &log}
		second := &orderedDependent{name: "second", log: &log}
		third := &orderedDependent{name: "third", log: &log}
		bindable.Connect(a, first)
		bindable.Connect(a, second)
		bindable.Connect(a, third)
		bindable.Connect(a, first)

		a.Assign(1)
		assert.Equal(t, []string{"first", "second", "third"}, log)
		runtime.KeepAlive([]any{first, second, third})
	})

	t.Run("collected dependents are pruned", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 0)
		func() {
			b := bindable.New(ctx, 0)
			require.NoError(t, b.Bind(func() int { return a.Read() }))
		}()
		runtime.GC()
		runtime.GC()
		assert.NotPanics(t, func() { a.Assign(1) })
	})

	t.Run("on change", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 1)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.Bind(func() int { return a.Read() * 2 }))

		var seenA, seenB []int
		stopA := a.OnChange(func(v int) { seenA = append(seenA, v) })
		b.OnChange(func(v int) { seenB = append(seenB, v) })

		a.Assign(2)
		a.Assign(2)
		assert.Equal(t, []int{2}, seenA)
		assert.Empty(t, seenB)
		assert.Equal(t, 4, b.Read())
		assert.Equal(t, []int{4}, seenB)

		stopA()
		a.Assign(3)
		assert.Equal(t, []int{2}, seenA)
	})

	t.Run("dispose", func(t *testing.T) {
		ctx := bindable.NewContext()
		a := bindable.New(ctx, 1)
		b := bindable.New(ctx, 0)
		require.NoError(t, b.Bind(func() int { return a.Read() }))
		b.Dispose()
		assert.False(t, b.IsBound())
		a.Assign(2)
		assert.False(t, b.IsDirty())
		assert.Equal(t, 1, b.Read())
	})

	/*
	   s
	   |
	   l  a (sets s)
	*/
	t.Run("set inside binding", func(t *testing.T) {
		ctx := bindable.NewContext()
		s := bindable.New(ctx, 1)
		a := bindable.New(ctx, false)
		require.NoError(t, a.Bind(func() bool {
			s.Assign(2)
			return true
		}))
		l := bindable.New(ctx, 0)
		require.NoError(t, l.Bind(func() int {
			return s.Read() + 100
		}))
		assert.True(t, a.Read())
		assert.Equal(t, 102, l.Read())
	})
}
