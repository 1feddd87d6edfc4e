// Package tcltk marshals Go values and calls across the boundary of a TCL
// interpreter, the way a Tk binding needs it.
//
// # Overview
//
// The package does not implement TCL. It drives an [Engine] (an in-process
// command table from package local, or a tclsh/wish subprocess from
// package wish) and provides:
//
//   - A value model ([Obj]) with TCL's list grammar and lazy conversions
//   - A command builder ([Cmd], [Scripts], [Options]) whose option lists are
//     checked against the command they are built for at compile time
//   - Typed errors ([InterpError], [NotListError], [DecodeError],
//     [NumericError]) with [KindOf] for classification
//   - A callback registry that turns Go closures into interpreter commands
//     and decodes event substitutions such as %x and %K into typed
//     parameters
//   - An "after" scheduler with timers, idle entries and an event loop
//
// # Quick Start
//
//	in := tcltk.New(local.New())
//	defer in.Close()
//
//	cb, _ := in.Bind("", "%x %y", func(x, y int) {
//	    fmt.Println("motion at", x, y)
//	})
//	in.Run(tcltk.Cmd("bind", ".canvas", "<Motion>", cb))
//
//	in.After(100*time.Millisecond, tcltk.Cmd("puts", "tick"))
//	in.MainLoop(ctx)
//
// # Values
//
// Every value has a string form. Numbers, lists, dicts and byte strings keep
// an internal representation so that repeated conversions are cheap:
//
//	v := tcltk.NewList(tcltk.NewString("a b"), tcltk.NewInt(1))
//	v.String() // "{a b} 1"
//
// [ValueOf] converts Go values to interpreter values and never fails.
// [Decode] goes the other way and reports precisely why it could not:
//
//	n, err := tcltk.Decode[uint8](tcltk.NewString("300"))
//	// err is a *NumericError: the text is an integer that does not fit
//
//	xs, err := tcltk.Decode[[]int](tcltk.NewString("1 {2"))
//	// err is a *NotListError with Incomplete set
//
// # Commands
//
// A [Command] is a list of words, one value per argument. Arguments that
// implement [Tokener] contribute several words in place:
//
//	tcltk.Cmd("button", ".b", tcltk.Options[tcltk.Button](
//	    tcltk.Text[tcltk.Button]("OK"),
//	    tcltk.CommandScript[tcltk.Button](cb),
//	))
//
// Option constructors are constrained by capability interfaces, so
// tcltk.CommandScript[tcltk.Label] does not compile: labels take no
// -command option.
//
// # Callbacks
//
// [Interp.Bind] registers a closure as a command. The pattern lists the
// substitutions the interpreter passes; their kinds are checked against
// the closure's parameters when binding. A callback lives until
// [Callback.Release] or [Interp.Close]; [Interp.WithCallback] scopes one to
// a function body.
//
// If an argument does not decode, the closure is not called. The command
// fails with a [CallbackError] that is also sent to the background error
// handler, since event-driven invocations have no Go caller to receive it.
//
// # Scheduling
//
// [Interp.After] and [Interp.AfterIdle] queue scripts; [Interp.Update],
// [Interp.DoOneEvent] and [Interp.MainLoop] run them. Timers with equal
// deadlines fire in creation order. Tests substitute a [FakeClock]:
//
//	clock := tcltk.NewFakeClock(time.Now())
//	in := tcltk.New(local.New(), tcltk.WithClock(clock))
//	in.After(50*time.Millisecond, "puts hi")
//	clock.Advance(50 * time.Millisecond)
//	in.Update() // prints "hi"
//
// # Concurrency
//
// An [Interp] belongs to the goroutine that runs its event loop. Other
// goroutines hand work to it with [Interp.Post].
package tcltk
