package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/backup"
)

func newBackupCommand(cctx *commandContext) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the catalogue database",
	}

	backupCmd.AddCommand(newBackupCreateCommand(cctx))
	backupCmd.AddCommand(newBackupListCommand(cctx))
	backupCmd.AddCommand(newBackupRestoreCommand(cctx))

	return backupCmd
}

func newBackupCreateCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a timestamped backup archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			info, err := backup.Create(cfg.DatabasePath(), cfg.Paths.CoversDir)
			if err != nil {
				return err
			}
			recordActivity(cctx, cmd, activity.ActionBackup, "", "", map[string]any{
				"archive": info.Filename,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", info.Path, formatSize(info.SizeBytes))
			return nil
		},
	}
}

func newBackupListCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List existing backup archives, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			backups, err := backup.List(cfg.DatabasePath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, "No backups yet")
				return nil
			}
			rows := make([][]string, 0, len(backups))
			for _, info := range backups {
				rows = append(rows, []string{
					info.Created.Format("2006-01-02 15:04:05"),
					info.Filename,
					formatSize(info.SizeBytes),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Created", "Archive", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newBackupRestoreCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore the database from a backup archive",
		Long: "Restore the database from a backup archive. The argument is either " +
			"an archive filename from `oakwood backup list` or a full path. The " +
			"current database is kept next to the restored one with a .pre-restore " +
			"suffix.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			archivePath := args[0]
			if filepath.Base(archivePath) == archivePath {
				dir, err := backup.Dir(cfg.DatabasePath())
				if err != nil {
					return err
				}
				archivePath = filepath.Join(dir, archivePath)
			}

			if err := backup.Restore(archivePath, cfg.DatabasePath()); err != nil {
				return err
			}
			recordActivity(cctx, cmd, activity.ActionRestore, "", "", map[string]any{
				"archive": filepath.Base(archivePath),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Restored database from %s\n", filepath.Base(archivePath))
			return nil
		},
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
