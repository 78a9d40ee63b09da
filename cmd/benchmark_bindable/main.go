package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/delaneyj/propparty/bindable"
	"github.com/delaneyj/propparty/erased"
	"github.com/delaneyj/propparty/props"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

var repeats = flag.Int("repeats", 5, "timed runs per shape, the best one is reported")

// shape describes a layered graph fed by a bank of source properties.
type shape struct {
	name     string
	width    int     // nodes per layer, and number of sources
	layers   int     // bound layers above the sources
	fanIn    int     // inputs per node
	static   float64 // fraction of nodes that always read every input
	readFrac float64 // fraction of the top layer read after each write
	writes   int     // source writes per run
}

var shapes = []shape{
	{name: "form", width: 10, layers: 4, fanIn: 2, static: 1, readFrac: 0.2, writes: 500_000},
	{name: "conditional form", width: 10, layers: 9, fanIn: 6, static: 0.75, readFrac: 0.2, writes: 15_000},
	{name: "dashboard", width: 1000, layers: 11, fanIn: 4, static: 0.95, readFrac: 1, writes: 5_000},
	{name: "wide", width: 1000, layers: 4, fanIn: 25, static: 1, readFrac: 1, writes: 2_000},
	{name: "deep", width: 5, layers: 499, fanIn: 3, static: 1, readFrac: 1, writes: 500},
	{name: "mostly dynamic", width: 100, layers: 14, fanIn: 6, static: 0.5, readFrac: 1, writes: 2_000},
}

// bank owns the source values. They are written by name only, the way a
// property sheet or a deserializer would drive a graph.
type bank struct {
	sources []*bindable.Value[int]
}

var (
	bankProps = props.NewRegistry[*bank]()
	bankNames []string
)

// sourceName registers source i on first use.
func sourceName(i int) string {
	for len(bankNames) <= i {
		k := len(bankNames)
		name := "s" + strconv.Itoa(k)
		if err := props.RegisterValue(bankProps, name, func(b *bank) *bindable.Value[int] {
			return b.sources[k]
		}); err != nil {
			log.Fatal(err)
		}
		bankNames = append(bankNames, name)
	}
	return bankNames[i]
}

// node is one derived value. Its rule is evaluated both through bindable
// reads and over plain ints, so the two can be checked against each other.
type node struct {
	inputs []int // indexes into the layer below
	static bool
}

func (n *node) eval(input func(i int) int) int {
	sum := input(0)
	if n.static {
		for i := 1; i < len(n.inputs); i++ {
			sum += input(i)
		}
		return sum
	}

	// odd heads skip one of the remaining inputs
	tail := len(n.inputs) - 1
	skip := -1
	if sum&1 == 1 && tail > 0 {
		skip = sum % tail
	}
	for i := 0; i < tail; i++ {
		if i == skip {
			continue
		}
		sum += input(i + 1)
	}
	return sum
}

type graph struct {
	shape   shape
	bank    *bank
	nodes   [][]*node
	values  [][]*bindable.Value[int]
	leaves  []int // indexes into the top layer that are read
	recomps int64
}

func build(s shape) (*graph, error) {
	random := rand.New(rand.NewSource(0))
	ctx := bindable.NewContext()
	g := &graph{shape: s, bank: &bank{}}

	below := make([]*bindable.Value[int], s.width)
	for i := range below {
		sourceName(i)
		below[i] = bindable.New(ctx, i)
	}
	g.bank.sources = below

	for l := 0; l < s.layers; l++ {
		nodes := make([]*node, s.width)
		row := make([]*bindable.Value[int], s.width)
		for j := range nodes {
			n := &node{
				inputs: make([]int, s.fanIn),
				static: random.Float64() < s.static,
			}
			for k := range n.inputs {
				n.inputs[k] = (j + k) % s.width
			}
			nodes[j] = n

			prev := below
			v := bindable.New(ctx, 0)
			if err := v.Bind(func() int {
				g.recomps++
				return n.eval(func(i int) int {
					return prev[n.inputs[i]].Read()
				})
			}); err != nil {
				return nil, fmt.Errorf("layer %d node %d: %w", l, j, err)
			}
			row[j] = v
		}
		g.nodes = append(g.nodes, nodes)
		g.values = append(g.values, row)
		below = row
	}

	skip := int(math.Round(float64(s.width) * (1 - s.readFrac)))
	g.leaves = random.Perm(s.width)[skip:]
	return g, nil
}

// run writes one source per step by name and reads the chosen leaves. It
// returns the sum of the leaves after the last write.
func (g *graph) run() (int, error) {
	for i := 0; i < g.shape.writes; i++ {
		k := i % g.shape.width
		if err := bankProps.Set(g.bank, sourceName(k), erased.Of(i+k)); err != nil {
			return 0, err
		}
		top := g.values[len(g.values)-1]
		for _, j := range g.leaves {
			top[j].Read()
		}
	}

	sum := 0
	top := g.values[len(g.values)-1]
	for _, j := range g.leaves {
		sum += top[j].Read()
	}
	return sum, nil
}

// verify recomputes the graph over plain ints from the current sources and
// compares every read leaf. It returns the plain sum.
func (g *graph) verify() (int, error) {
	below := make([]int, g.shape.width)
	for i := range below {
		v, err := props.GetAs[int](props.Wrap(bankProps, g.bank), sourceName(i))
		if err != nil {
			return 0, err
		}
		below[i] = v
	}
	for _, nodes := range g.nodes {
		row := make([]int, len(nodes))
		for j, n := range nodes {
			row[j] = n.eval(func(i int) int {
				return below[n.inputs[i]]
			})
		}
		below = row
	}

	sum := 0
	top := g.values[len(g.values)-1]
	for _, j := range g.leaves {
		if got := top[j].Peek(); got != below[j] {
			return 0, fmt.Errorf("leaf %d: bound value %d, plain value %d", j, got, below[j])
		}
		sum += below[j]
	}
	return sum, nil
}

type result struct {
	duration time.Duration
	recomps  int64
	sum      int
}

func measure(s shape) (*result, error) {
	g, err := build(s)
	if err != nil {
		return nil, err
	}
	// warm up
	if _, err := g.run(); err != nil {
		return nil, err
	}

	best := &result{duration: time.Hour}
	for i := 0; i < *repeats; i++ {
		g.recomps = 0
		start := time.Now()
		sum, err := g.run()
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(start)

		want, err := g.verify()
		if err != nil {
			return nil, fmt.Errorf("%s run %d: %w", s.name, i+1, err)
		}
		if sum != want {
			return nil, fmt.Errorf("%s run %d: sum %d, plain sum %d", s.name, i+1, sum, want)
		}

		if elapsed < best.duration {
			best = &result{duration: elapsed, recomps: g.recomps, sum: sum}
		}
	}
	return best, nil
}

func main() {
	flag.Parse()
	log.Print("Measuring bound graphs written by name, please wait...")
	defer log.Print("Done")

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"shape", "size", "fan-in", "static%", "read%",
		"writes", "best", "recomputes", "recomputes/ms", "leaf sum",
	})

	for _, s := range shapes {
		log.Printf("Running %q", s.name)
		res, err := measure(s)
		if err != nil {
			log.Fatal(err)
		}

		perMs := float64(res.recomps) / (float64(res.duration) / float64(time.Millisecond))
		tbl.Append([]string{
			s.name,
			fmt.Sprintf("%dx%d", s.width, s.layers+1),
			strconv.Itoa(s.fanIn),
			strconv.FormatFloat(100*s.static, 'f', 0, 64),
			strconv.FormatFloat(100*s.readFrac, 'f', 0, 64),
			humanize.Comma(int64(s.writes)),
			res.duration.String(),
			humanize.Comma(res.recomps),
			humanize.Comma(int64(perMs)),
			humanize.Comma(int64(res.sum)),
		})
	}
	tbl.Render()
}
