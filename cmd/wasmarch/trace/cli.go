package trace

import (
	"bufio"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmarch/wasmarch/load"
	"github.com/wasmarch/wasmarch/wasm/trace"
)

func Command() *cobra.Command {
	var modulePath string

	command := &cobra.Command{
		Use:   "trace [path to trace]",
		Short: "Print execution traces",
		Long:  "Print an execution trace recorded by run --trace. Functions are named after the module's exports if --module is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}

			var names trace.Names = trace.ExportNames{}
			if modulePath != "" {
				mod, err := load.LoadFile(modulePath)
				if err != nil {
					return err
				}
				names = trace.NewExportNames(mod)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			w := bufio.NewWriter(cmd.OutOrStdout())
			if err := trace.PrintTrace(w, bufio.NewReader(f), names); err != nil {
				w.Flush()
				return err
			}
			return w.Flush()
		},
	}

	command.PersistentFlags().StringVarP(&modulePath, "module", "m", "", "module the trace was recorded from")

	return command
}
