package tcltk

import (
	"fmt"
	"time"
)

// InstallAfterCommand registers the command "after" backed by this Interp's
// scheduler, so scripts running in the interpreter share the queue with Go:
//
//	after ms
//	after ms script ?script ...?
//	after cancel id
//	after cancel script ?script ...?
//	after idle script ?script ...?
//	after info ?id?
//
// "after ms" without a script blocks the loop for ms.
func (i *Interp) InstallAfterCommand() (*Callback, error) {
	cb, err := i.BindRaw("after", "", i.afterCmd)
	if err != nil {
		return nil, err
	}
	cb.Detach()
	return cb, nil
}

func (i *Interp) afterCmd(args []*Obj) (*Obj, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf(`wrong # args: should be "after option ?arg ...?"`)
	}
	if ms, err := AsInt(args[0]); err == nil {
		delay := time.Duration(max(ms, 0)) * time.Millisecond
		if len(args) == 1 {
			<-i.clock.After(delay)
			return nil, nil
		}
		id, err := i.After(delay, args[1], objsToAny(args[2:])...)
		if err != nil {
			return nil, err
		}
		return NewString(string(id)), nil
	}

	switch sub := args[0].String(); sub {
	case "cancel":
		if len(args) < 2 {
			return nil, fmt.Errorf(`wrong # args: should be "after cancel id|command"`)
		}
		if len(args) == 2 {
			if _, ok := i.sched.byID[TimerID(args[1].String())]; ok {
				i.Cancel(TimerID(args[1].String()))
				return nil, nil
			}
		}
		i.CancelScript(args[1], objsToAny(args[2:])...)
		return nil, nil
	case "idle":
		if len(args) < 2 {
			return nil, fmt.Errorf(`wrong # args: should be "after idle script ?script ...?"`)
		}
		id, err := i.AfterIdle(args[1], objsToAny(args[2:])...)
		if err != nil {
			return nil, err
		}
		return NewString(string(id)), nil
	case "info":
		switch len(args) {
		case 1:
			ids := i.Pending()
			items := make([]*Obj, len(ids))
			for j, id := range ids {
				items[j] = NewString(string(id))
			}
			return NewList(items...), nil
		case 2:
			info, ok := i.Info(TimerID(args[1].String()))
			if !ok {
				return nil, fmt.Errorf("event %q doesn't exist", args[1].String())
			}
			return info.TclValue(), nil
		}
		return nil, fmt.Errorf(`wrong # args: should be "after info ?id?"`)
	default:
		return nil, fmt.Errorf("bad argument %q: must be cancel, idle, info, or an integer", sub)
	}
}

func objsToAny(objs []*Obj) []any {
	out := make([]any, len(objs))
	for j, o := range objs {
		out[j] = o
	}
	return out
}
