// cmd/gounnest/verify_backup_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-unnest/pkg/backup"
)

func init() {
	rootCmd.AddCommand(verifyBackupCmd())
}

func verifyBackupCmd() *cobra.Command {
	var maxThreads int

	cmd := &cobra.Command{
		Use:   "verify-backup <backup-dir> [digest]",
		Short: "Check a backup against the digest printed after a run",
		Long: `Recompute the digest of a backup directory. With a digest argument the
result is compared and a mismatch is an error; without one the digest is printed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				digest, err := backup.Digest(cmd.Context(), args[0], maxThreads)
				if err != nil {
					return err
				}
				fmt.Println(digest)
				return nil
			}

			rec := &backup.Record{Root: args[0], Digest: args[1]}
			if err := backup.Verify(cmd.Context(), rec); err != nil {
				return err
			}
			fmt.Printf("Backup OK: %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxThreads, "threads", "t", 0, "Files hashed in parallel (default: number of CPUs)")

	return cmd
}
