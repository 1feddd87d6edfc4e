package tcltk

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// TimerID identifies a pending timer or idle entry.
type TimerID string

// TimerKind distinguishes delayed entries from idle entries.
type TimerKind string

const (
	TimerDelayed TimerKind = "timer"
	TimerIdle    TimerKind = "idle"
)

func (k *TimerKind) DecodeValue(v *Obj) error {
	got, err := DecodeEnum(v, "timer kind", TimerDelayed, TimerIdle)
	if err != nil {
		return err
	}
	*k = got
	return nil
}

// TimerInfo describes a pending entry.
type TimerInfo struct {
	ID     TimerID
	Script *Obj
	Kind   TimerKind
	// Due is the deadline of a timer entry; zero for idle entries.
	Due time.Time
}

func (t TimerInfo) TclValue() *Obj {
	return NewList(t.Script, NewString(string(t.Kind)))
}

type timerEntry struct {
	id     TimerID
	seq    uint64
	kind   TimerKind
	due    time.Time
	script *Obj
	owned  *Callback // released once the entry fires or is cancelled
}

type timerKey struct {
	due time.Time
	seq uint64
}

// byDeadline orders timers by deadline, then creation order.
func byDeadline(a, b any) int {
	ka, kb := a.(timerKey), b.(timerKey)
	if c := ka.due.Compare(kb.due); c != 0 {
		return c
	}
	switch {
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	}
	return 0
}

// scheduler holds the timer and idle queues. Timers live in a red-black
// tree keyed by (deadline, seq); idle entries in an insertion-ordered map
// keyed by seq. Entries are removed from both before they run, so a script
// that cancels or schedules entries never disturbs the one firing.
type scheduler struct {
	timers  *redblacktree.Tree
	idle    *linkedhashmap.Map
	byID    map[TimerID]*timerEntry
	nextSeq uint64
}

func (s *scheduler) init() {
	s.timers = redblacktree.NewWith(byDeadline)
	s.idle = linkedhashmap.New()
	s.byID = make(map[TimerID]*timerEntry)
}

func (s *scheduler) add(kind TimerKind, due time.Time, script *Obj, owned *Callback) *timerEntry {
	s.nextSeq++
	e := &timerEntry{
		id:     TimerID(fmt.Sprintf("after#%d", s.nextSeq)),
		seq:    s.nextSeq,
		kind:   kind,
		due:    due,
		script: script,
		owned:  owned,
	}
	if kind == TimerIdle {
		s.idle.Put(e.seq, e)
	} else {
		s.timers.Put(timerKey{due: due, seq: e.seq}, e)
	}
	s.byID[e.id] = e
	return e
}

func (s *scheduler) remove(e *timerEntry) {
	if e.kind == TimerIdle {
		s.idle.Remove(e.seq)
	} else {
		s.timers.Remove(timerKey{due: e.due, seq: e.seq})
	}
	delete(s.byID, e.id)
}

// nextDue returns the earliest timer if its deadline is not after now.
func (s *scheduler) nextDue(now time.Time) *timerEntry {
	node := s.timers.Left()
	if node == nil {
		return nil
	}
	e := node.Value.(*timerEntry)
	if e.due.After(now) {
		return nil
	}
	return e
}

// nextDeadline returns the earliest timer deadline.
func (s *scheduler) nextDeadline() (time.Time, bool) {
	node := s.timers.Left()
	if node == nil {
		return time.Time{}, false
	}
	return node.Key.(timerKey).due, true
}

// firstIdle returns the oldest idle entry created before the generation
// mark, so entries added during an idle pass wait for the next pass.
func (s *scheduler) firstIdle(before uint64) *timerEntry {
	it := s.idle.Iterator()
	if !it.First() {
		return nil
	}
	e := it.Value().(*timerEntry)
	if e.seq > before {
		return nil
	}
	return e
}

func (s *scheduler) ordered() []*timerEntry {
	out := make([]*timerEntry, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].seq < out[b].seq })
	return out
}

// -----------------------------------------------------------------------------
// Interp API
// -----------------------------------------------------------------------------

// After schedules script to run once, at global level, after at least delay
// of event loop time. Additional arguments are joined to script the way
// concat joins words. Errors raised by the script go to the background
// error handler.
func (i *Interp) After(delay time.Duration, script any, more ...any) (TimerID, error) {
	if i.closed {
		return "", ErrClosed
	}
	if delay < 0 {
		delay = 0
	}
	e := i.sched.add(TimerDelayed, i.clock.Now().Add(delay), joinScript(script, more), nil)
	i.log.Debug("timer scheduled", "id", e.id, "delay", delay)
	return e.id, nil
}

// AfterIdle schedules script to run the next time the event loop has
// nothing else ready.
func (i *Interp) AfterIdle(script any, more ...any) (TimerID, error) {
	if i.closed {
		return "", ErrClosed
	}
	e := i.sched.add(TimerIdle, time.Time{}, joinScript(script, more), nil)
	i.log.Debug("idle scheduled", "id", e.id)
	return e.id, nil
}

// AfterFunc schedules fn to run after delay. fn is registered as a
// generated command for as long as the entry is pending.
func (i *Interp) AfterFunc(delay time.Duration, fn func() error) (TimerID, error) {
	cb, err := i.bindScheduled(fn)
	if err != nil {
		return "", err
	}
	if delay < 0 {
		delay = 0
	}
	e := i.sched.add(TimerDelayed, i.clock.Now().Add(delay), cb.Value(), cb)
	i.log.Debug("timer scheduled", "id", e.id, "delay", delay, "callback", cb.name)
	return e.id, nil
}

// AfterIdleFunc schedules fn to run at idle time.
func (i *Interp) AfterIdleFunc(fn func() error) (TimerID, error) {
	cb, err := i.bindScheduled(fn)
	if err != nil {
		return "", err
	}
	e := i.sched.add(TimerIdle, time.Time{}, cb.Value(), cb)
	i.log.Debug("idle scheduled", "id", e.id, "callback", cb.name)
	return e.id, nil
}

func (i *Interp) bindScheduled(fn func() error) (*Callback, error) {
	return i.BindRaw("", "", func([]*Obj) (*Obj, error) {
		return nil, fn()
	})
}

// Cancel removes a pending entry. Cancelling an entry that already fired or
// was already cancelled does nothing.
func (i *Interp) Cancel(id TimerID) {
	e, ok := i.sched.byID[id]
	if !ok {
		return
	}
	i.sched.remove(e)
	if e.owned != nil {
		e.owned.Release()
	}
	i.log.Debug("timer cancelled", "id", id)
}

// CancelScript removes the first-created pending entry whose script equals
// script (joined with more as in After). Other entries with the same script
// stay pending. It reports whether an entry was removed.
func (i *Interp) CancelScript(script any, more ...any) bool {
	want := joinScript(script, more)
	for _, e := range i.sched.ordered() {
		if Equal(e.script, want) {
			i.Cancel(e.id)
			return true
		}
	}
	return false
}

// Pending returns the identifiers of all pending entries in creation order.
func (i *Interp) Pending() []TimerID {
	entries := i.sched.ordered()
	ids := make([]TimerID, len(entries))
	for j, e := range entries {
		ids[j] = e.id
	}
	return ids
}

// Info describes the pending entry id.
func (i *Interp) Info(id TimerID) (TimerInfo, bool) {
	e, ok := i.sched.byID[id]
	if !ok {
		return TimerInfo{}, false
	}
	return TimerInfo{ID: e.id, Script: e.script, Kind: e.kind, Due: e.due}, true
}

// fire dequeues e and runs its script at global level.
func (i *Interp) fire(e *timerEntry) {
	i.sched.remove(e)
	i.log.Debug("timer fired", "id", e.id, "kind", e.kind)
	err := i.Run(Cmd("uplevel", "#0", e.script))
	if e.owned != nil {
		e.owned.Release()
	}
	if err != nil && !errors.As(err, new(*CallbackError)) {
		i.BackgroundError(fmt.Errorf("%s: %w", e.id, err))
	}
}

func joinScript(script any, more []any) *Obj {
	if len(more) == 0 {
		return ValueOf(script)
	}
	values := make([]*Obj, 0, 1+len(more))
	values = append(values, ValueOf(script))
	for _, m := range more {
		values = append(values, ValueOf(m))
	}
	return Concat(values...)
}
