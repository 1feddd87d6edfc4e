package tcltk

import (
	"context"
	"time"
)

// EventFlags select which kinds of work DoOneEvent may process.
type EventFlags int

const (
	TimerEvents EventFlags = 1 << iota
	IdleEvents
	PostedEvents
	// DontWait makes DoOneEvent return instead of blocking when nothing is
	// ready.
	DontWait

	AllEvents = TimerEvents | IdleEvents | PostedEvents
)

// DoOneEvent processes one unit of work and reports whether it did. In
// order of preference that is the earliest due timer, then one posted
// function, then an idle pass. Without DontWait it blocks until some work
// becomes ready.
func (i *Interp) DoOneEvent(flags EventFlags) bool {
	ok, _ := i.doOneEvent(context.Background(), flags)
	return ok
}

func (i *Interp) doOneEvent(ctx context.Context, flags EventFlags) (bool, error) {
	for {
		if i.closed {
			return false, nil
		}
		if flags&TimerEvents != 0 {
			if e := i.sched.nextDue(i.clock.Now()); e != nil {
				i.fire(e)
				return true, nil
			}
		}
		if flags&PostedEvents != 0 {
			if fn := i.popPosted(); fn != nil {
				fn()
				return true, nil
			}
		}
		if flags&IdleEvents != 0 && i.idlePass() {
			return true, nil
		}
		if flags&DontWait != 0 {
			return false, nil
		}
		if err := i.wait(ctx, flags); err != nil {
			return false, err
		}
	}
}

// idlePass runs the idle entries that exist when the pass starts.
func (i *Interp) idlePass() bool {
	mark := i.sched.nextSeq
	ran := false
	for !i.closed {
		e := i.sched.firstIdle(mark)
		if e == nil {
			break
		}
		i.fire(e)
		ran = true
	}
	return ran
}

// wait blocks until the next timer is due, a function is posted or ctx is
// done.
func (i *Interp) wait(ctx context.Context, flags EventFlags) error {
	var timer <-chan time.Time
	if flags&TimerEvents != 0 {
		if due, ok := i.sched.nextDeadline(); ok {
			timer = i.clock.After(due.Sub(i.clock.Now()))
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer:
	case <-i.wake:
	}
	return nil
}

// Update processes events until none is ready, without blocking.
func (i *Interp) Update() {
	for i.DoOneEvent(AllEvents | DontWait) {
	}
}

// UpdateIdleTasks runs idle entries until none remains.
func (i *Interp) UpdateIdleTasks() {
	for i.DoOneEvent(IdleEvents | DontWait) {
	}
}

// MainLoop processes events until ctx is done or the Interp is closed. It
// returns ctx's error in the first case and nil in the second.
func (i *Interp) MainLoop(ctx context.Context) error {
	i.log.Debug("main loop started")
	defer i.log.Debug("main loop stopped")
	for !i.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := i.doOneEvent(ctx, AllEvents); err != nil {
			return err
		}
	}
	return nil
}
