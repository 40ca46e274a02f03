// cmd/gounnest/scan_cmd.go
package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-unnest/internal/charset"
	"github.com/creativeyann17/go-unnest/pkg/decompress"
	"github.com/creativeyann17/go-unnest/pkg/extract"
	"github.com/creativeyann17/go-unnest/pkg/unnest"
)

func init() {
	rootCmd.AddCommand(scanCmd())
}

func scanCmd() *cobra.Command {
	opts := extract.DefaultOptions()
	var entries bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "List the archives the first round would extract",
		Long: `List the archives found below a directory without changing anything.
With --entries the content of each archive is listed too, with entry names
decoded the same way extraction would.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Root = args[0]

			tasks, err := extract.Scan(opts)
			if err != nil {
				return err
			}
			resolver, err := charset.New(opts.NameCharset)
			if err != nil {
				return err
			}
			root, err := filepath.Abs(opts.Root)
			if err != nil {
				return err
			}

			var total int64
			for _, task := range tasks {
				total += task.Size
				rel, err := filepath.Rel(root, task.Path)
				if err != nil {
					rel = task.Path
				}
				fmt.Printf("%-8s %10s  %s\n", task.Format, unnest.FormatSize(task.Size), rel)

				if !entries {
					continue
				}
				desc, _ := opts.Registry.Lookup(task.Format)
				dec, err := opts.Decoders.Lookup(desc)
				if err != nil {
					fmt.Printf("    ! %v\n", err)
					continue
				}
				list, err := decompress.List(cmd.Context(), dec, task.Path)
				for _, e := range list {
					name := resolver.Resolve(e.RawName, e.Charset)
					fmt.Printf("    %4d %10s  %s%s\n", e.Index, entrySize(e), name.Text, entryFlags(e, name))
				}
				if err != nil {
					fmt.Printf("    ! %v\n", err)
				}
			}

			fmt.Printf("\n%d archives, %s\n", len(tasks), unnest.FormatSize(total))
			fmt.Printf("Formats: %s\n", formatList(opts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&entries, "entries", false, "List the entries of each archive")
	cmd.Flags().StringVar(&opts.NameCharset, "charset", "", "Charset to try for non UTF-8 entry names")
	addScanFlags(cmd.Flags(), opts)

	return cmd
}

// formatList names the recognized formats, marking those without a decoder
func formatList(opts *extract.Options) string {
	var names []string
	for _, desc := range opts.Registry.Descriptors() {
		name := string(desc.Tag)
		if !opts.Decoders.Available(desc.Tag) {
			name += " (no decoder)"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func entrySize(e decompress.Entry) string {
	if e.IsDir {
		return "<dir>"
	}
	return unnest.FormatSize(e.Size)
}

func entryFlags(e decompress.Entry, name charset.Name) string {
	var flags string
	if e.Encrypted {
		flags += "  [encrypted]"
	}
	if name.Fallback {
		flags += "  [undecodable name]"
	} else if name.Encoding != "utf-8" {
		flags += "  [" + name.Encoding + "]"
	}
	return flags
}
