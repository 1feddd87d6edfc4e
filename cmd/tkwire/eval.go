package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/feather-lang/tcltk"
	"github.com/spf13/cobra"
)

func newEvalCommand(flags *globalFlags) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "eval [flags] <command> [args]...",
		Short: "Evaluate one command and print its result",
		Long: `Evaluate one command built from the given words and print its result.

Each word becomes exactly one argument, so no quoting is needed for words
containing spaces. With --wait the event loop runs for the given duration
afterwards, letting scheduled scripts fire.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log := cfg.Logger(os.Stderr)
			in, err := openInterp(cfg, os.Stdout, log)
			if err != nil {
				return err
			}
			defer in.Close()

			words := make([]any, len(args)-1)
			for j, a := range args[1:] {
				words[j] = a
			}
			v, err := in.Evaluate(tcltk.Cmd(args[0], words...))
			if err != nil {
				return describe(err)
			}
			if s := v.String(); s != "" {
				fmt.Println(s)
			}

			if wait > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), wait)
				defer cancel()
				if err := in.MainLoop(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
					return err
				}
			}
			in.Update()
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "run the event loop for this long after evaluating")
	return cmd
}

// describe adds the error kind and, for interpreter errors, the error code.
func describe(err error) error {
	var ie *tcltk.InterpError
	if errors.As(err, &ie) && ie.Code != nil && ie.Code.String() != "NONE" {
		return fmt.Errorf("%s error (%s): %w", tcltk.KindOf(err), ie.Code, err)
	}
	return fmt.Errorf("%s error: %w", tcltk.KindOf(err), err)
}
