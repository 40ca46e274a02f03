// cmd/gounnest/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/creativeyann17/go-unnest/pkg/extract"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = extractCmd()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, extract.ErrInterrupted) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// addScanFlags registers the flags shared by the root command and scan
func addScanFlags(flags *pflag.FlagSet, opts *extract.Options) {
	flags.StringArrayVar(&opts.Exclude, "exclude", nil, "Skip paths matching a gitignore-style pattern (repeatable)")
	flags.BoolVar(&opts.SniffSignatures, "sniff", false, "Also detect archives without a known extension by their magic bytes")
	flags.StringVar(&opts.IgnoreFile, "ignore-file", opts.IgnoreFile, "Name of per-directory ignore files")
}
