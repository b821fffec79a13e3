package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/storage"
)

func (a *app) backupCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot, list and restore the library database",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "backup directory (default: [storage] backup_dir or backups/ next to the database)")

	manager := func() (*storage.BackupManager, error) {
		if dir == "" {
			dir = a.cfg.Storage.BackupDir
		}
		path, err := a.cfg.DatabasePath()
		if err != nil {
			return nil, err
		}
		if path == storage.MemoryPath {
			return nil, errors.New("cannot back up an in-memory database")
		}
		return storage.NewBackupManager(path, dir), nil
	}

	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Write a verified snapshot of the library",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bm, err := manager()
			if err != nil {
				return err
			}
			info, err := bm.Backup(inputArg(args))
			if err != nil {
				return err
			}
			a.logger.Info("backup written", "path", info.Path, "wishlists", info.Wishlists)
			fmt.Fprintln(cmd.OutOrStdout(), info.Path)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bm, err := manager()
			if err != nil {
				return err
			}
			backups, err := bm.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWISHLISTS\tSIZE\tCREATED")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", b.Name, b.Wishlists, b.Size, b.ModTime.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	restore := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the library with a backup",
		Long: `Replaces the library database with a backup. The current database is kept
next to it with an .old.<timestamp> suffix. Stop any running server first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bm, err := manager()
			if err != nil {
				return err
			}
			if err := bm.Restore(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, list, restore)
	return cmd
}
