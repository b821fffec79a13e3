package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/storage"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <up|down|version|steps N|force N>",
		Short: "Manage the library database schema",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.cfg.DatabasePath()
			if err != nil {
				return err
			}
			if path == storage.MemoryPath {
				return errors.New("cannot migrate an in-memory database")
			}

			mm, err := storage.NewMigrationManager(path)
			if err != nil {
				return err
			}
			defer func() {
				if err := mm.Close(); err != nil {
					a.logger.Warn("error closing migration manager", "error", err)
				}
			}()

			n := 0
			if args[0] == "steps" || args[0] == "force" {
				if len(args) != 2 {
					return fmt.Errorf("%s needs a number", args[0])
				}
				if n, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid number %q", args[1])
				}
			} else if len(args) != 1 {
				return fmt.Errorf("%s takes no argument", args[0])
			}

			switch args[0] {
			case "up":
				err = mm.Up()
			case "down":
				err = mm.Down()
			case "steps":
				err = mm.Steps(n)
			case "force":
				err = mm.Force(n)
			case "version":
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
			if err != nil {
				return err
			}

			version, dirty, err := mm.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	return cmd
}
