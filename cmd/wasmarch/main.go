package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasmarch/wasmarch/cmd/wasmarch/dump"
	"github.com/wasmarch/wasmarch/cmd/wasmarch/run"
	"github.com/wasmarch/wasmarch/cmd/wasmarch/trace"
	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/interpreter"
	"github.com/wasmarch/wasmarch/load"
	"github.com/wasmarch/wasmarch/wasm"
)

var version = "<unknown>"

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setLogger(l *zap.Logger) {
	wasm.SetLogger(l)
	exec.SetLogger(l)
	interpreter.SetLogger(l)
}

func configureCLI() *cobra.Command {
	var cpuProfile string
	var memProfile string
	var configPath string
	var verbose bool

	config := load.DefaultConfig()

	rootCommand := &cobra.Command{
		Use:           "wasmarch",
		Short:         "wasmarch WebAssembly interpreter",
		Long:          "wasmarch - a WebAssembly decoder and interpreter",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				c, err := load.LoadConfig(configPath)
				if err != nil {
					return err
				}
				*config = *c
			}
			if cmd.Flags().Changed("verbose") {
				config.Verbose = verbose
			}

			logger, err := newLogger(config.Verbose)
			if err != nil {
				return err
			}
			setLogger(logger)

			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return err
				}
				pprof.StartCPUProfile(f)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer wasm.Logger().Sync() //nolint:errcheck

			if cpuProfile != "" {
				pprof.StopCPUProfile()
			}

			if memProfile != "" {
				f, err := os.Create(memProfile)
				if err != nil {
					return err
				}
				defer f.Close()
				runtime.GC()
				pprof.WriteHeapProfile(f)
			}

			return nil
		},
	}

	rootCommand.AddCommand(dump.Command())
	rootCommand.AddCommand(run.Command(config))
	rootCommand.AddCommand(trace.Command())

	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "read run configuration from this TOML file")
	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCommand.PersistentFlags().StringVar(&cpuProfile, "cpu", "", "emit Go CPU profile data to this path")
	rootCommand.PersistentFlags().StringVar(&memProfile, "mem", "", "emit Go memory profile data to this path")

	rootCommand.PersistentFlags().MarkHidden("cpu")
	rootCommand.PersistentFlags().MarkHidden("mem")

	return rootCommand
}

func main() {
	rootCommand := configureCLI()

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
