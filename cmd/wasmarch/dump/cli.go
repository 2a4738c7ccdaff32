package dump

import (
	"bufio"
	"errors"

	"github.com/spf13/cobra"

	"github.com/wasmarch/wasmarch/load"
	"github.com/wasmarch/wasmarch/wasm/trace"
)

func Command() *cobra.Command {
	var stats bool

	command := &cobra.Command{
		Use:   "dump [path to module]",
		Short: "Dump WebAssembly modules",
		Long:  "Dump WebAssembly modules as a readable listing, or per-function statistics as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}
			mod, err := load.LoadFile(args[0])
			if err != nil {
				return err
			}
			names := trace.NewExportNames(mod)

			w := bufio.NewWriter(cmd.OutOrStdout())
			if stats {
				err = dumpStats(w, mod, names)
			} else {
				err = writeModule(w, mod, names)
			}
			if err != nil {
				return err
			}
			return w.Flush()
		},
	}

	command.PersistentFlags().BoolVarP(&stats, "stats", "s", false, "dump module statistics in CSV format")

	return command
}
