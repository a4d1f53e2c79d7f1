// Package main implements the threadlocal demonstration tool.
//
// The tool measures what a recycling worker pool does to thread-local
// caching. It runs the same workload twice over a pool whose workers wipe
// every thread-local slot after each task:
//
//  1. against a naive per-goroutine cell, where every task misses because
//     the previous task's value was wiped;
//  2. against a fallback-backed container, where only the first task on
//     each worker misses and everything after is recovered.
//
// Usage:
//
//	threadlocal run [--tasks N] [--workers W]
//
// Expected result: naive hits ≈ 0; fallback misses ≈ number of workers.
package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/threadlocal/internal/local/pool"
	"github.com/kolkov/threadlocal/internal/local/slot"
	"github.com/kolkov/threadlocal/local"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	initLogger()

	// Short-circuit --version/-v.
	for _, a := range os.Args {
		if a == "--version" || a == "-v" {
			fmt.Println(local.Version)
			return 0
		}
	}

	app := &cli.Command{
		Name:  "threadlocal",
		Usage: "goroutine-local storage with fallback, hit-rate demonstration",
	}
	app.Commands = append(app.Commands, runCommand())

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run the hit-rate comparison",
		UsageText: `threadlocal run [options]`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"t"},
				Usage:   "number of tasks to submit per scenario",
				Value:   100000,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "number of recycled pool workers",
				Value:   10,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tasks := int(cmd.Int("tasks"))
			workers := int(cmd.Int("workers"))
			if tasks < 1 || workers < 1 {
				return fmt.Errorf("tasks (%d) and workers (%d) must be positive", tasks, workers)
			}
			return runComparison(tasks, workers)
		},
	}
}

// result is one scenario's outcome.
type result struct {
	name   string
	hits   int64
	misses int64
}

func runComparison(tasks, workers int) error {
	log.Infof("submitting %s tasks to %d recycled workers, twice",
		humanize.Comma(int64(tasks)), workers)

	var naive, fallback result

	// The scenarios are independent (separate pools, separate cells), so
	// run them concurrently.
	var g errgroup.Group
	g.Go(func() error {
		naive = measureNaive(tasks, workers)
		return nil
	})
	g.Go(func() error {
		var err error
		fallback, err = measureFallback(tasks, workers)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	report(tasks, naive)
	report(tasks, fallback)
	fmt.Printf("expected fallback misses: %d (one per recycled worker)\n", workers)
	return nil
}

// measureNaive runs the workload against a bare thread-local cell. The
// pool wipes it between tasks, so every task misses.
func measureNaive(tasks, workers int) result {
	cell := slot.New[*payload]()
	shared := &payload{}

	var hits, misses atomic.Int64
	p := pool.New(workers)
	for i := 0; i < tasks; i++ {
		p.Submit(func() {
			if _, ok := cell.Load(); ok {
				hits.Add(1)
			} else {
				misses.Add(1)
				cell.Store(shared)
			}
		})
	}
	p.Close()

	return result{name: "naive thread-local cell", hits: hits.Load(), misses: misses.Load()}
}

// measureFallback runs the workload against the fallback container. Only
// the first task on each worker manufactures; the rest recover.
func measureFallback(tasks, workers int) (result, error) {
	var manufactured atomic.Int64
	v := local.New(func() *payload {
		manufactured.Add(1)
		return &payload{}
	})

	var failures atomic.Int64
	p := pool.New(workers)
	for i := 0; i < tasks; i++ {
		p.Submit(func() {
			if _, err := v.Get(); err != nil {
				failures.Add(1)
			}
		})
	}
	p.Close()

	if n := failures.Load(); n > 0 {
		return result{}, fmt.Errorf("%d container calls failed", n)
	}
	misses := manufactured.Load()
	return result{
		name:   "fallback container",
		hits:   int64(tasks) - misses,
		misses: misses,
	}, nil
}

func report(tasks int, r result) {
	fmt.Printf("%-24s %s hits / %s tasks (%s misses)\n",
		r.name+":",
		humanize.Comma(r.hits),
		humanize.Comma(int64(tasks)),
		humanize.Comma(r.misses))
}

// payload stands in for an expensive-to-construct object worth caching
// across tasks.
type payload struct {
	_ [256]byte
}
