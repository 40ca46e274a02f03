// cmd/gounnest/extract_cmd.go
package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/creativeyann17/go-unnest/pkg/backup"
	"github.com/creativeyann17/go-unnest/pkg/extract"
	"github.com/creativeyann17/go-unnest/pkg/unnest"
)

func extractCmd() *cobra.Command {
	opts := extract.DefaultOptions()
	var noBackup bool
	var logFile string
	var noLogFile bool

	cmd := &cobra.Command{
		Use:   "gounnest <dir>",
		Short: "go-unnest - recursive batch archive extractor",
		Long: `go-unnest extracts every archive below a directory, then scans again and
extracts the archives that came out of them, until nothing is left.

A timestamped copy of the directory is made next to it first unless
--no-backup is given. Archives are deleted once fully extracted unless
--keep-original is given; archives that failed are always kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Root = args[0]
			opts.CreateBackup = !noBackup

			if err := opts.Validate(); err != nil {
				return err
			}

			logger := unnest.NewLogger(opts.Quiet, opts.Verbose)
			defer logger.Close()

			if !noLogFile {
				if logFile == "" {
					logFile = defaultLogPath(opts.Root)
				}
				if err := logger.OpenFile(logFile); err != nil {
					return err
				}
			}

			logger.Info("Starting extraction...")
			logger.Info("  Target:    %s", opts.Root)
			logger.Info("  Backup:    %v", opts.CreateBackup)
			logger.Info("  Originals: %s", keepOrDelete(opts.KeepOriginal))
			logger.Info("  Layout:    %s", layout(opts))
			logger.Info("  Threads:   %d, max rounds: %d", opts.MaxThreads, opts.MaxRounds)
			if path := logger.FilePath(); path != "" {
				logger.Info("  Log file:  %s", path)
			}

			var progressCb extract.ProgressCallback = logEvents(logger, opts)
			var progress *mpb.Progress
			if !opts.Quiet && !opts.Verbose {
				progressCb, progress = extract.ProgressBarCallback(nil, progressCb)
				logger.SetOutput(progress)
			}

			result, err := extract.Run(cmd.Context(), opts, progressCb)

			if progress != nil {
				progress.Wait()
				logger.SetOutput(nil)
			}

			if result != nil {
				logger.Print("\n" + extract.FormatSummary(result))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not copy the directory before extracting")
	cmd.Flags().BoolVar(&opts.VerifyBackup, "verify-backup", false, "Re-hash the backup right after copying")
	cmd.Flags().BoolVar(&opts.KeepOriginal, "keep-original", false, "Keep archives after a successful extraction")
	cmd.Flags().BoolVar(&opts.FlattenStructure, "flat-structure", false, "Extract every archive into <dir>/<archive name>")
	cmd.Flags().BoolVar(&opts.ExtractFilesOnly, "extract-flat", false, "Drop directories stored inside archives")
	cmd.Flags().IntVarP(&opts.MaxThreads, "threads", "t", opts.MaxThreads, "Archives extracted in parallel")
	cmd.Flags().IntVar(&opts.MaxRounds, "max-rounds", extract.DefaultMaxRounds, "Stop after this many scan/extract rounds")
	cmd.Flags().StringVar(&opts.NameCharset, "charset", "", "Charset to try for non UTF-8 entry names (e.g. gbk, shift_jis)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: unnest_<timestamp>.log next to <dir>)")
	cmd.Flags().BoolVar(&noLogFile, "no-log-file", false, "Do not write a log file")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed output")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Only print errors (overrides verbose)")
	addScanFlags(cmd.Flags(), opts)

	return cmd
}

// defaultLogPath places the log next to the target so the scanned tree is not modified
func defaultLogPath(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	name := "unnest_" + time.Now().Format(backup.TimestampLayout) + ".log"
	return filepath.Join(filepath.Dir(abs), name)
}

func keepOrDelete(keep bool) string {
	if keep {
		return "keep"
	}
	return "delete when fully extracted"
}

func layout(opts *extract.Options) string {
	switch {
	case opts.FlattenStructure && opts.ExtractFilesOnly:
		return "all files directly in <dir>"
	case opts.FlattenStructure:
		return "<dir>/<archive>/, no inner directories"
	case opts.ExtractFilesOnly:
		return "files next to each archive"
	default:
		return "<archive dir>/<archive>/ with inner directories"
	}
}

// logEvents turns session events into log lines
func logEvents(logger *unnest.Logger, opts *extract.Options) extract.ProgressCallback {
	rel := func(p string) string {
		root, err := filepath.Abs(opts.Root)
		if err != nil {
			return p
		}
		if r, err := filepath.Rel(root, p); err == nil {
			return r
		}
		return p
	}

	return func(e extract.ProgressEvent) {
		switch e.Type {
		case extract.EventState:
			logger.Debug("state: %s", e.State)
			if e.State == extract.StateBackingUp {
				logger.Info("Creating backup of %s", opts.Root)
			}
		case extract.EventRoundStart:
			logger.Info("Round %d: %d archives", e.Round, e.Total)
		case extract.EventDiscovered:
			logger.Info("Found %s (%s, %s)", rel(e.Path), e.Task.Format, unnest.FormatSize(e.Task.Size))
		case extract.EventArchiveComplete:
			logResult(logger, rel(e.Path), e.Result)
		case extract.EventDecodeFallback:
			logger.Warn("Undecodable entry name in %s, stored as %q", rel(e.Path), e.Message)
		case extract.EventDeleted:
			logger.Debug("Deleted %s (%s)", rel(e.Path), unnest.FormatSize(e.Current))
		case extract.EventWarning:
			logger.Warn("%s", e.Message)
		case extract.EventError:
			logger.Error("%s: %v", e.Path, e.Err)
		}
	}
}

// maxListed caps the produced files listed per archive in verbose mode
const maxListed = 10

func logResult(logger *unnest.Logger, name string, res *extract.ExtractionResult) {
	switch res.Outcome {
	case extract.OutcomeSuccess:
		logger.Success("Extracted %s: %d files, %s in %s", name, len(res.Produced),
			unnest.FormatSize(res.BytesWritten), res.Elapsed.Round(time.Millisecond))
	case extract.OutcomePartial:
		logger.Warn("Partially extracted %s (%d files): %v", name, len(res.Produced), res.Reason)
	case extract.OutcomePasswordProtected:
		logger.Warn("Password protected, kept: %s", name)
	case extract.OutcomeSkipped:
		logger.Warn("Skipped %s", name)
	default:
		logger.Error("Failed %s: %v", name, res.Reason)
	}

	for _, err := range res.EntryErrors {
		logger.Debug("  %v", err)
	}
	for i, p := range res.Produced {
		if i == maxListed {
			logger.Debug("  ... and %d more", len(res.Produced)-maxListed)
			break
		}
		logger.Debug("  + %s", p)
	}
}
