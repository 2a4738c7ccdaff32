package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasmarch/wasmarch/cmd/wasmarch/grid"
	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/interpreter"
	"github.com/wasmarch/wasmarch/load"
	"github.com/wasmarch/wasmarch/stdlib"
)

type runFlags struct {
	mode         string
	invoke       string
	maxCallDepth uint
	fuel         uint64
	trace        string
	seed         int64
	fps          int
	saveState    string
	loadState    string
}

// apply overrides the configuration with the flags that were set on the command line.
func (f *runFlags) apply(cmd *cobra.Command, config load.Config, args []string) (*load.Config, error) {
	set := cmd.Flags().Changed
	if set("mode") {
		config.Mode = f.mode
	}
	if set("invoke") {
		config.Invoke = f.invoke
	}
	if len(args) != 0 {
		config.Args = args
	}
	if set("max-call-depth") {
		config.MaxCallDepth = f.maxCallDepth
	}
	if set("fuel") {
		config.Fuel = f.fuel
	}
	if set("trace") {
		config.Trace = f.trace
	}
	if set("seed") {
		config.Seed = f.seed
	}
	if set("fps") {
		config.Grid.FPS = f.fps
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func openTrace(path string) (io.Writer, func() error, error) {
	traceFile, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(traceFile)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			w.Flush()
			os.Exit(-1)
		}
	}()

	return w, func() error {
		signal.Stop(c)
		if err := w.Flush(); err != nil {
			traceFile.Close()
			return err
		}
		return traceFile.Close()
	}, nil
}

func loadState(r *interpreter.Runtime, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := exec.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	if err := r.Store().Restore(snap); err != nil {
		return fmt.Errorf("restoring %s: %w", path, err)
	}
	return nil
}

func saveState(r *interpreter.Runtime, path string) error {
	data, err := exec.MarshalSnapshot(r.Store().Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Invoke calls the named export with arguments parsed according to its parameter types and writes its
// results to w, separated by spaces. Nothing is written for functions without results.
func Invoke(w io.Writer, r *interpreter.Runtime, name string, args []string) error {
	f, err := r.GetFunc(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	vals, err := exec.ParseArgs(f.FuncType(), args)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	results, err := r.Call(f, vals...)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	strs := make([]string, len(results))
	for i, v := range results {
		strs[i] = v.String()
	}
	_, err = fmt.Fprintln(w, strings.Join(strs, " "))
	return err
}

func Command(defaults *load.Config) *cobra.Command {
	var f runFlags

	command := &cobra.Command{
		Use:   "run [path to module] [args...]",
		Short: "Run WebAssembly modules",
		Long: "Run a WebAssembly module with the std host module. The module's start function runs first; " +
			"--invoke then calls an export with the remaining arguments. In grid mode the module is shown " +
			"in the terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("expected at least one argument")
			}

			config, err := f.apply(cmd, *defaults, args[1:])
			if err != nil {
				return err
			}

			mod, err := load.LoadFile(args[0])
			if err != nil {
				return err
			}

			var traceWriter io.Writer
			if config.Trace != "" {
				w, closeTrace, err := openTrace(config.Trace)
				if err != nil {
					return err
				}
				defer closeTrace()
				traceWriter = w
			}

			seed := config.Seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			std, err := stdlib.NewModule(cmd.OutOrStdout(), seed)
			if err != nil {
				return err
			}

			r, err := load.Instantiate(mod, config.Options(traceWriter), std)
			if err != nil {
				return err
			}
			defer r.Store().Close()
			defer r.Close()

			if f.loadState != "" {
				if err := loadState(r, f.loadState); err != nil {
					return err
				}
			}

			log := interpreter.Logger()
			log.Debug("running module", zap.String("path", args[0]), zap.String("mode", config.Mode))

			if err := r.Start(); err != nil {
				return err
			}

			switch config.Mode {
			case load.ModeGrid:
				p, err := grid.NewProgram(r)
				if err != nil {
					return err
				}
				if err := grid.Run(p, config.Grid.FPS); err != nil {
					return err
				}
			default:
				if config.Invoke != "" {
					if err := Invoke(cmd.OutOrStdout(), r, config.Invoke, config.Args); err != nil {
						return err
					}
				}
			}

			if fuel, ok := r.Fuel(); ok {
				log.Debug("execution finished", zap.Uint64("fuel", fuel))
			}

			if f.saveState != "" {
				return saveState(r, f.saveState)
			}
			return nil
		},
	}

	flags := command.PersistentFlags()
	flags.StringVarP(&f.mode, "mode", "m", load.ModeStd, "execution mode (std or grid)")
	flags.StringVarP(&f.invoke, "invoke", "i", "", "invoke this export after the start function")
	flags.UintVar(&f.maxCallDepth, "max-call-depth", 0, "maximum call depth (0 for the default)")
	flags.Uint64Var(&f.fuel, "fuel", 0, "maximum number of instructions to execute (0 for no limit)")
	flags.StringVarP(&f.trace, "trace", "t", "", "write an execution trace to the specified file")
	flags.Int64Var(&f.seed, "seed", 0, "seed for std.random_bool (0 for a time-based seed)")
	flags.IntVar(&f.fps, "fps", 30, "frames per second in grid mode")
	flags.StringVar(&f.saveState, "save-state", "", "write the store's globals and memories to this file on exit")
	flags.StringVar(&f.loadState, "load-state", "", "restore the store's globals and memories from this file before starting")

	return command
}
