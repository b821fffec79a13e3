package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
)

func (a *app) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the weapon and perk definition catalog",
	}
	cmd.AddCommand(a.catalogSyncCmd(), a.catalogSearchCmd())
	return cmd
}

func (a *app) catalogSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <file>",
		Short: "Store a catalog file in the library database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Catalog.Path = args[0]
			svc, closeDB, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			n := 0
			if src := svc.Catalog(); src != nil {
				n = len(src.ListByKind(catalog.KindWeapon)) + len(src.ListByKind(catalog.KindPerk))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d definitions from %s\n", n, args[0])
			return nil
		},
	}
}

func (a *app) catalogSearchCmd() *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find definitions by approximate name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := catalog.ParseKind(kind)
			if err != nil {
				return err
			}

			src, err := a.fileCatalog()
			if err != nil {
				return err
			}
			if src == nil {
				svc, closeDB, err := a.openLibrary(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDB()
				src = svc.Catalog()
			}
			if src == nil {
				return errNoCatalog
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "HASH\tNAME\tTYPE\tSCORE")
			for _, m := range catalog.SearchByName(src, k, args[0], catalog.DefaultMinScore, limit) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", m.Definition.Hash, m.Definition.DisplayName, m.Definition.ItemType, m.Score)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "weapon", "definition kind: weapon or perk")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	return cmd
}
