package render

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by a Scheduler after Close.
var ErrClosed = errors.New("scheduler closed")

// State is the scheduler state.
type State int32

const (
	// Idle means no job is being rendered
	Idle State = iota
	// Rendering means a level is in flight
	Rendering
	// CancelRequested means the in-flight level was asked to stop
	CancelRequested
)

func (s State) String() string {
	switch s {
	case Rendering:
		return "rendering"
	case CancelRequested:
		return "cancel-requested"
	}
	return "idle"
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Workers is the number of render goroutines
	Workers int

	// OnLevel receives every completed level. It runs on the scheduler
	// goroutine and owns the frame.
	OnLevel func(*Frame, LevelStats)

	// OnStatus is called when the scheduler becomes busy or idle.
	OnStatus func(busy bool)
}

type exclusiveRequest struct {
	fn   func()
	done chan struct{}
}

// Scheduler renders the most recently submitted job level by level on a
// single goroutine. A new submission cancels the level in flight and the
// new job starts from its coarsest level; intermediate submissions are
// dropped.
type Scheduler struct {
	cfg  SchedulerConfig
	pool *pool

	mu        sync.Mutex
	state     State
	pending   *Job
	exclusive []exclusiveRequest
	closed    bool

	stop    atomic.Bool
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	scratch []uint32
}

// NewScheduler starts a scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		cfg:  cfg,
		pool: newPool(cfg.Workers),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Submit schedules job, superseding any job not yet finished.
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending = job
	s.cancelLocked()
	s.mu.Unlock()
	s.signal()
	return nil
}

// Exclusive runs fn on the scheduler goroutine while no level is in
// flight and waits for it. It must not be called from OnLevel or
// OnStatus. The interrupted job, if any, restarts from its
// coarsest level afterwards unless a newer one was submitted.
func (s *Scheduler) Exclusive(fn func()) error {
	req := exclusiveRequest{fn: fn, done: make(chan struct{})}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.exclusive = append(s.exclusive, req)
	s.cancelLocked()
	s.mu.Unlock()
	s.signal()

	select {
	case <-req.done:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close cancels the level in flight and stops the scheduler.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.cancelLocked()
	s.mu.Unlock()

	close(s.quit)
	<-s.done
	s.pool.close()
}

func (s *Scheduler) cancelLocked() {
	if s.state == Rendering {
		s.state = CancelRequested
		s.stop.Store(true)
	}
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)

	var (
		current *Job
		busy    bool
	)
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		s.mu.Lock()
		if excl := s.exclusive; len(excl) > 0 {
			s.exclusive = nil
			s.mu.Unlock()
			for _, r := range excl {
				r.fn()
				close(r.done)
			}
			continue
		}
		if s.pending != nil {
			current, s.pending = s.pending, nil
		}
		if current == nil {
			s.state = Idle
			s.mu.Unlock()
			if busy {
				busy = false
				s.status(false)
			}
			select {
			case <-s.wake:
			case <-s.quit:
				return
			}
			continue
		}
		s.state = Rendering
		s.stop.Store(false)
		s.mu.Unlock()

		if !busy {
			busy = true
			s.status(true)
		}
		if !s.run(current) {
			current = nil
		}
	}
}

// run renders every level of job. It returns true when interrupted.
func (s *Scheduler) run(job *Job) bool {
	if job.Prepare != nil {
		job.Prepare()
	}
	w, h := job.Size()
	if len(s.scratch) != w*h {
		s.scratch = make([]uint32, w*h)
	}
	for _, lvl := range job.Levels() {
		if s.stop.Load() {
			return true
		}
		stats := renderLevel(s.pool, job, lvl, s.scratch, &s.stop)
		if stats.Cancelled {
			logger.Debugf("level sub=%d cancelled", lvl.Sub)
			return true
		}
		if s.cfg.OnLevel != nil {
			s.cfg.OnLevel(snapshotFrame(w, h, s.scratch), stats)
		}
	}
	return false
}

func (s *Scheduler) status(busy bool) {
	if s.cfg.OnStatus != nil {
		s.cfg.OnStatus(busy)
	}
}
