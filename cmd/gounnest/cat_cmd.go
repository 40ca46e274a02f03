// cmd/gounnest/cat_cmd.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-unnest/internal/format"
	"github.com/creativeyann17/go-unnest/pkg/decompress"
)

func init() {
	rootCmd.AddCommand(catCmd())
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <archive> <index>",
		Short: "Write one archive entry to stdout",
		Long:  "Write the entry at <index> (as printed by scan --entries) to stdout.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 0 {
				return fmt.Errorf("invalid entry index %q", args[1])
			}

			registry := format.DefaultRegistry()
			desc, ok := registry.Resolve(path)
			if !ok {
				header, err := format.ReadHeader(path)
				if err != nil {
					return err
				}
				if desc, ok = registry.Detect(header); !ok {
					return fmt.Errorf("%s: not a recognized archive", path)
				}
			}
			dec, err := decompress.DefaultSet().Lookup(desc)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(os.Stdout)
			_, err = decompress.ExtractEntry(cmd.Context(), dec, path, index, w)
			if ferr := w.Flush(); err == nil {
				err = ferr
			}
			return err
		},
	}
}
