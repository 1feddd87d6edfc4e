// tkwire drives a Tcl interpreter through the tcltk package: it evaluates
// commands given on the command line or runs an interactive loop whose
// lines execute inside the tcltk event loop.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/feather-lang/tcltk"
	"github.com/feather-lang/tcltk/internal/config"
	"github.com/feather-lang/tcltk/local"
	"github.com/feather-lang/tcltk/wish"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	engine     string
	logLevel   string
}

func main() {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "tkwire",
		Short:         "Evaluate Tcl commands through the tcltk marshalling layer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&flags.engine, "engine", "", "interpreter engine: local or wish")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newEvalCommand(&flags), newReplCommand(&flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides.
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		var err error
		cfg, err = config.Load(flags.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}
	if flags.engine != "" {
		cfg.Engine = flags.engine
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openInterp starts the configured engine and wraps it in an Interp.
func openInterp(cfg config.Config, out io.Writer, log *slog.Logger) (*tcltk.Interp, error) {
	var engine tcltk.Engine
	switch cfg.Engine {
	case "wish":
		e, err := wish.Start(wish.Config{
			Path:   cfg.Wish.Path,
			Args:   cfg.Wish.Args,
			Tk:     cfg.Wish.Tk,
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		engine = e
	default:
		engine = local.New(local.WithOutput(out), local.WithLogger(log))
	}

	in := tcltk.New(engine,
		tcltk.WithLogger(log),
		tcltk.WithInternCapacity(cfg.InternCache),
	)
	if cfg.InstallAfter {
		if _, err := in.InstallAfterCommand(); err != nil {
			in.Close()
			return nil, fmt.Errorf("installing after: %w", err)
		}
	}
	return in, nil
}
