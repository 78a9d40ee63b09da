package bindable

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
)

var (
	ErrCyclicBinding  = errors.New("cyclic binding")
	ErrForeignContext = errors.New("value read under another context")
)

// recomputing maps a goroutine id to the Context whose recomputation is
// outermost on that goroutine.
var (
	recomputing sync.Map
	inProgress  atomic.Int64
)

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// "goroutine <id> [running]:"
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// Dependent is anything that can be told its inputs changed.
type Dependent interface {
	MarkDirty()
}

// source is an upstream node a recomputation can read from.
type source interface {
	addDependent(ref dependentRef)
	removeDependent(d Dependent)
}

type frame struct {
	node  Dependent
	reads []source
	seen  mapset.Set[source]
	err   error
}

// Context tracks which values are being recomputed right now so reads made
// during a recomputation can be credited to it. A Context belongs to one
// goroutine at a time; give each goroutine driving its own graph its own
// Context.
//
// Every value read by an expression must share the Context of the value
// being recomputed. Reading a value of any other Context fails that
// recomputation with ErrForeignContext.
type Context struct {
	frames []*frame
	active mapset.Set[Dependent]
	logger *slog.Logger

	gid        uint64
	registered bool
}

type Option func(*Context)

// WithLogger emits debug records for recomputations and failed bindings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

func NewContext(opts ...Option) *Context {
	c := &Context{
		active: mapset.NewThreadUnsafeSet[Dependent](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token is held for the duration of one recomputation. Release it with defer.
type Token struct {
	ctx      *Context
	f        *frame
	released bool
}

// Enter pushes n onto the active recomputation stack. It fails with
// ErrCyclicBinding when n is already on the stack.
func (c *Context) Enter(n Dependent) (*Token, error) {
	if c.active.Contains(n) {
		c.debug("cyclic binding", "depth", len(c.frames), "node", fmt.Sprintf("%T", n))
		return nil, fmt.Errorf("%w: %T re-entered at depth %d", ErrCyclicBinding, n, len(c.frames))
	}
	f := &frame{
		node: n,
		seen: mapset.NewThreadUnsafeSet[source](),
	}
	c.frames = append(c.frames, f)
	c.active.Add(n)
	if len(c.frames) == 1 {
		inProgress.Add(1)
		c.gid = goroutineID()
		_, loaded := recomputing.LoadOrStore(c.gid, c)
		c.registered = !loaded
	}
	return &Token{ctx: c, f: f}, nil
}

// Release pops the token's frame. Releasing twice is a no-op.
func (t *Token) Release() {
	if t == nil || t.released {
		return
	}

	c := t.ctx
	last := len(c.frames) - 1
	if last < 0 || c.frames[last] != t.f {
		panic("bindable: token released out of order")
	}
	t.released = true
	c.frames[last] = nil
	c.frames = c.frames[:last]
	c.active.Remove(t.f.node)
	if last == 0 {
		if c.registered {
			recomputing.Delete(c.gid)
			c.registered = false
		}
		inProgress.Add(-1)
	}
}

// Err is the first failure recorded while this token's frame was innermost.
func (t *Token) Err() error {
	return t.f.err
}

func (t *Token) reads() []source {
	return t.f.reads
}

// Current returns the innermost value being recomputed, if any.
func (c *Context) Current() (Dependent, bool) {
	if len(c.frames) == 0 {
		return nil, false
	}
	return c.frames[len(c.frames)-1].node, true
}

// Depth is the number of recomputations in progress.
func (c *Context) Depth() int {
	return len(c.frames)
}

// foreign returns the Context recomputing on this goroutine when that is not
// c. Reads under c are only legal while c itself is recomputing or while
// nothing is.
func (c *Context) foreign() *Context {
	if len(c.frames) > 0 || inProgress.Load() == 0 {
		return nil
	}
	other, ok := recomputing.Load(goroutineID())
	if !ok {
		return nil
	}
	if o := other.(*Context); o != c {
		return o
	}
	return nil
}

// track credits a read of s to the innermost recomputation.
func (c *Context) track(s source) {
	if len(c.frames) == 0 {
		return
	}
	f := c.frames[len(c.frames)-1]
	if f.seen.Contains(s) {
		return
	}
	f.seen.Add(s)
	f.reads = append(f.reads, s)
}

// fail records err on the innermost recomputation. The first error wins.
func (c *Context) fail(err error) {
	if len(c.frames) == 0 {
		return
	}
	f := c.frames[len(c.frames)-1]
	if f.err == nil {
		f.err = err
	}
}

func (c *Context) debug(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, args...)
}
