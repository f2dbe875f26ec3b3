package actor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultIdleTimeout is how long a mailbox waits for work before retiring.
const DefaultIdleTimeout = 2 * time.Minute

// job is one unit of work executed inside a session's mailbox.
type job struct {
	run      func()
	done     chan struct{}
	panicked any // re-raised on the submitting goroutine
}

// mailbox serializes jobs for a single session id.
type mailbox struct {
	id      string
	jobs    chan *job
	pending int // submitters that reserved a slot; guarded by registry.mu
}

// registry maps session id → mailbox. Mailboxes start on first use and exit
// once idle with nothing pending, so the map only holds active sessions.
type registry struct {
	mu    sync.Mutex
	boxes map[string]*mailbox
	idle  time.Duration
}

func newRegistry(idle time.Duration) *registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &registry{boxes: make(map[string]*mailbox), idle: idle}
}

// do runs fn inside id's mailbox and waits for it to finish.
// If ctx ends before fn is dequeued, fn never runs and ctx.Err() is returned.
// Once fn has started it runs to completion even if ctx ends.
func (r *registry) do(ctx context.Context, id string, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	mb, ok := r.boxes[id]
	if !ok {
		mb = &mailbox{id: id, jobs: make(chan *job)}
		r.boxes[id] = mb
		go r.serve(mb)
	}
	mb.pending++
	r.mu.Unlock()

	j := &job{run: fn, done: make(chan struct{})}
	select {
	case mb.jobs <- j:
	case <-ctx.Done():
		r.mu.Lock()
		mb.pending--
		r.mu.Unlock()
		return ctx.Err()
	}
	<-j.done
	if j.panicked != nil {
		panic(j.panicked)
	}
	return nil
}

// serve drains jobs one at a time until the mailbox idles out.
func (r *registry) serve(mb *mailbox) {
	timer := time.NewTimer(r.idle)
	defer timer.Stop()
	for {
		select {
		case j := <-mb.jobs:
			r.runJob(mb, j)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(r.idle)
		case <-timer.C:
			r.mu.Lock()
			if mb.pending == 0 {
				delete(r.boxes, mb.id)
				r.mu.Unlock()
				log.Debug().Str("gameId", mb.id).Msg("mailbox retired")
				return
			}
			r.mu.Unlock()
			timer.Reset(r.idle)
		}
	}
}

func (r *registry) runJob(mb *mailbox, j *job) {
	defer func() {
		if p := recover(); p != nil {
			j.panicked = p
		}
		r.mu.Lock()
		mb.pending--
		r.mu.Unlock()
		close(j.done)
	}()
	j.run()
}

// active reports the number of live mailboxes.
func (r *registry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boxes)
}
