package sched

import "github.com/iansmith/mazarin-kernel/internal/except"

// Timer reports the platform's free-running microsecond counter, used to
// decide which sleeping threads have woken (§4.5).
type Timer interface {
	Micros() uint64
}

// Scheduler owns the thread arena and the ready/sleep queues. All state is
// per-CPU and must be mutated only with interrupts masked (§5) — callers are
// expected to hold the kernel's IRQ-masked lock around every method here.
type Scheduler struct {
	timer Timer

	threads map[ThreadID]*Thread
	ready   []ThreadID
	sleep   []ThreadID
	current ThreadID

	nextThreadID ThreadID
	nextHandle   ObjectHandle
}

// NewScheduler creates a scheduler with a single bootstrap thread — the
// thread the kernel is already running on at boot — as the current thread.
func NewScheduler(timer Timer, bootName string) *Scheduler {
	s := &Scheduler{
		timer:   timer,
		threads: make(map[ThreadID]*Thread),
	}

	boot := &Thread{
		ID:      s.allocThreadID(),
		Name:    bootName,
		Status:  Running(),
		Objects: make(map[ObjectHandle]KernelObject),
	}
	s.threads[boot.ID] = boot
	s.current = boot.ID

	return s
}

func (s *Scheduler) allocThreadID() ThreadID {
	s.nextThreadID++
	return s.nextThreadID
}

// AllocateHandle returns a fresh, never-before-issued object handle.
func (s *Scheduler) AllocateHandle() ObjectHandle {
	s.nextHandle++
	return s.nextHandle
}

func (s *Scheduler) enqueueReady(id ThreadID) {
	s.ready = append(s.ready, id)
}

func (s *Scheduler) dequeueReady() (*Thread, error) {
	if len(s.ready) == 0 {
		return nil, ErrNoReadyThread
	}
	id := s.ready[0]
	s.ready = s.ready[1:]
	return s.threads[id], nil
}

// CurrentThread returns the thread presently marked Running.
func (s *Scheduler) CurrentThread() *Thread {
	return s.threads[s.current]
}

// Now returns the platform timer's free-running microsecond counter, the
// same clock WakeSleeping compares sleeping threads' wake times against
// (§4.5, §4.6 Wait).
func (s *Scheduler) Now() uint64 {
	return s.timer.Micros()
}

// Thread looks up a thread by id.
func (s *Scheduler) Thread(id ThreadID) (*Thread, bool) {
	t, ok := s.threads[id]
	return t, ok
}

// AddThread creates a new Ready thread whose saved register frame is frame,
// parented to the current thread, and enqueues it (§4.5 add_thread).
func (s *Scheduler) AddThread(name string, frame *except.Frame) ThreadID {
	id := s.allocThreadID()
	t := &Thread{
		ID:           id,
		Name:         name,
		StackPointer: frame,
		Status:       Ready(),
		Parent:       s.current,
		HasParent:    true,
		Objects:      make(map[ObjectHandle]KernelObject),
	}
	s.threads[id] = t
	s.enqueueReady(id)

	parent := s.CurrentThread()
	parent.Children = append(parent.Children, id)

	return id
}

// Schedule is the tick handler: the current thread goes to the ready tail as
// Ready, and the ready head becomes current as Running (§4.5 schedule).
func (s *Scheduler) Schedule() error {
	return s.requeueCurrentAndAdvance()
}

// YieldCurrentThread performs the same transition as Schedule, initiated by
// the running thread itself rather than a timer tick (§4.5).
func (s *Scheduler) YieldCurrentThread() error {
	return s.requeueCurrentAndAdvance()
}

func (s *Scheduler) requeueCurrentAndAdvance() error {
	former := s.CurrentThread()
	former.Status = Ready()
	s.enqueueReady(former.ID)

	next, err := s.dequeueReady()
	if err != nil {
		return err
	}
	next.Status = Running()
	s.current = next.ID
	return nil
}

// DelayCurrentThread moves the current thread to the sleep queue with a wake
// time, then advances to the next ready thread (§4.5 delay_current_thread).
func (s *Scheduler) DelayCurrentThread(wakeTime uint64) error {
	former := s.CurrentThread()
	former.Status = Sleeping(wakeTime)
	s.sleep = append(s.sleep, former.ID)

	next, err := s.dequeueReady()
	if err != nil {
		return err
	}
	next.Status = Running()
	s.current = next.ID
	return nil
}

// WakeSleeping scans the sleep queue and moves every thread whose wake time
// has passed back to Ready at the tail of the ready queue (§4.5).
func (s *Scheduler) WakeSleeping() {
	now := s.timer.Micros()

	remaining := s.sleep[:0]
	for _, id := range s.sleep {
		t := s.threads[id]
		if t.Status.WakeTime <= now {
			t.Status = Ready()
			s.enqueueReady(id)
		} else {
			remaining = append(remaining, id)
		}
	}
	s.sleep = remaining
}

// JoinCurrentThread blocks the current thread on childID's exit. If childID
// has already exited, the current thread's return value is set immediately
// and it keeps running; otherwise the current thread becomes Joining and the
// scheduler advances to the next ready thread (§4.5 join_current_thread).
func (s *Scheduler) JoinCurrentThread(childID ThreadID) error {
	current := s.CurrentThread()

	isChild := false
	for _, c := range current.Children {
		if c == childID {
			isChild = true
			break
		}
	}
	if !isChild {
		return ErrNotAChild
	}

	child, ok := s.threads[childID]
	if ok && child.Status.Kind == StatusExited {
		current.Children = removeID(current.Children, childID)
		delete(s.threads, childID)
		current.StackPointer.SetReturnValue(child.Status.ExitCode)
		return nil
	}

	current.Status = Joining(childID)
	next, err := s.dequeueReady()
	if err != nil {
		return err
	}
	next.Status = Running()
	s.current = next.ID
	return nil
}

// ExitCurrentThread marks the current thread Exited, wakes any thread
// joining on it (delivering the exit code into that thread's saved return
// slot), and advances to the next ready thread. The exited thread's record
// stays in the arena — appearing only transiently — until a join reaps it
// (§3, §4.5 exit_current_thread).
func (s *Scheduler) ExitCurrentThread(code uint64) error {
	dying := s.CurrentThread()
	dying.Status = Exited(code)
	dyingID := dying.ID

	for _, t := range s.threads {
		if t.Status.Kind == StatusJoining && t.Status.JoinTarget == dyingID {
			t.StackPointer.SetReturnValue(code)
			t.Status = Ready()
			s.enqueueReady(t.ID)
		}
	}

	next, err := s.dequeueReady()
	if err != nil {
		return err
	}
	next.Status = Running()
	s.current = next.ID
	return nil
}

func removeID(ids []ThreadID, target ThreadID) []ThreadID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
