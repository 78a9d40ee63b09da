package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/propparty/bindable"
	"github.com/delaneyj/propparty/erased"
	"github.com/delaneyj/propparty/props"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var profile = flag.String("profile", "", "write a CPU profile to this file")

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkBindable(false)
	benchmarkProperties(false)

	benchmarkBindable(true)
	benchmarkProperties(true)
}

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100, 1_000}
	iters = 100
)

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, calc *tachymeter.Metrics) {
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

// benchmarkBindable measures an assignment to one source followed by a read
// of every leaf, over w chains of h bound values each.
func benchmarkBindable(shouldRender bool) {
	tbl := newTable("Bindable values")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			ctx := bindable.NewContext()
			src := bindable.New(ctx, 1)
			// each leaf's expression keeps its chain reachable
			leaves := make([]*bindable.Value[int], 0, w)
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					prev := last
					next := bindable.New(ctx, 0)
					if err := next.Bind(func() int {
						return prev.Read() + 1
					}); err != nil {
						log.Fatal(err)
					}
					last = next
				}
				leaves = append(leaves, last)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Assign(src.Peek() + 1)
				for _, leaf := range leaves {
					leaf.Read()
				}
				tach.AddTime(time.Since(start))
			}

			appendCalc(tbl, fmt.Sprintf("propagate: %s * %s", humanize.Comma(int64(w)), humanize.Comma(int64(h))), tach.Calc())
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

type vehicle struct {
	Speed props.Property[int]
	Name  props.Property[string]
}

var vehicleProps = props.NewRegistry[*vehicle]()

func init() {
	if err := props.RegisterProperty(vehicleProps, "speed", func(v *vehicle) *props.Property[int] { return &v.Speed }); err != nil {
		log.Fatal(err)
	}
	if err := props.RegisterProperty(vehicleProps, "name", func(v *vehicle) *props.Property[string] { return &v.Name }); err != nil {
		log.Fatal(err)
	}
}

// benchmarkProperties compares typed writes with writes by name.
func benchmarkProperties(shouldRender bool) {
	tbl := newTable("Properties")
	counts := []int{1, 100, 10_000}

	for _, n := range counts {
		vehicles := make([]*vehicle, n)
		for i := range vehicles {
			vehicles[i] = &vehicle{}
			vehicles[i].Speed.UseSetter(func(v int) {
				vehicles[i].Speed.Set(min(v, 200))
			})
		}

		typed := tachymeter.New(&tachymeter.Config{Size: iters})
		byName := tachymeter.New(&tachymeter.Config{Size: iters})
		for i := 0; i < iters; i++ {
			start := time.Now()
			for _, v := range vehicles {
				v.Speed.Set(i)
			}
			typed.AddTime(time.Since(start))

			start = time.Now()
			cell := erased.Of(i)
			for _, v := range vehicles {
				if err := vehicleProps.Set(v, "speed", cell); err != nil {
					log.Fatal(err)
				}
			}
			byName.AddTime(time.Since(start))
		}

		appendCalc(tbl, fmt.Sprintf("typed set: %s", humanize.Comma(int64(n))), typed.Calc())
		appendCalc(tbl, fmt.Sprintf("set by name: %s", humanize.Comma(int64(n))), byName.Calc())
	}

	if shouldRender {
		tbl.Render()
	}
}
