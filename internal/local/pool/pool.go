// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pool implements a recycling worker pool that wipes thread-local
// slots between tasks.
//
// This is the adversary the fallback store is built against, modeled on
// pool runtimes that clear all thread-local data once a task finishes so
// that unrelated tasks sharing a recycled worker cannot see each other's
// leftovers. The demo program and the reclamation tests run their
// workloads through it; the store itself never depends on it.
package pool

import (
	"sync"

	"github.com/apex/log"

	"github.com/kolkov/threadlocal/internal/local/slot"
	"github.com/kolkov/threadlocal/internal/local/thread"
)

// Pool runs submitted tasks on a fixed set of recycled worker goroutines.
//
// After every task the worker wipes all thread-local slots for itself, and
// on shutdown each worker releases its thread handle so its death is
// observed promptly.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// New starts a pool with the given number of workers.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan func(), workers),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues a task. Blocks if the queue is full; must not be called
// after Close.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks, waits for queued ones to finish and for
// every worker to exit.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	// Worker exit is this goroutine's deterministic death edge.
	defer thread.Release()

	for task := range p.tasks {
		runTask(task)
		// Post-task isolation wipe: no thread-local value survives into
		// the next task except through a fallback store.
		slot.WipeCurrent()
	}
}

// runTask isolates the worker from a panicking task.
func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Debug("pool: task panicked")
		}
	}()
	task()
}
