package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/export"
)

func (a *app) importCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import wishlist files into the library",
		Long: `Imports each file under its absolute path. Re-importing a file whose content
did not change is a no-op. Use --source to store stdin or a single file
under a name of your choosing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "" && len(args) > 1 {
				return errors.New("--source can only be used with a single file")
			}
			svc, closeDB, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			out := cmd.OutOrStdout()
			for _, path := range args {
				text, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				name := source
				if name == "" {
					name = sourceName(path)
				}

				res, err := svc.Import(cmd.Context(), name, text)
				if err != nil {
					return err
				}
				status := "updated"
				switch {
				case res.Unchanged:
					status = "unchanged"
				case res.Created:
					status = "created"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%d items\t%d malformed\n",
					status, res.Wishlist.ID, name, res.Wishlist.ItemCount, res.Stats.Malformed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source name to store the wishlist under")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored wishlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeDB, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			lists, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tITEMS\tUPDATED\tSOURCE")
			for _, wl := range lists {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					wl.ID, wl.Title, wl.ItemCount, wl.UpdatedAt.Format("2006-01-02 15:04"), wl.Source)
			}
			return tw.Flush()
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format    string
		output    string
		overwrite bool
		pretty    bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored wishlist",
		Long: `Exports a stored wishlist. Format txt writes canonical wishlist text; csv,
json and md write one consolidated summary row per weapon.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			id := args[0]
			if strings.EqualFold(format, "txt") {
				text, err := svc.Export(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, text)
			}

			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			wl, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			summaries, err := svc.Summaries(cmd.Context(), id)
			if err != nil {
				return err
			}

			var lookup catalog.Lookup
			if src := svc.Catalog(); src != nil {
				lookup = src
			}
			rows := export.BuildRows(summaries, lookup)
			title := wl.Title
			if title == "" {
				title = wl.Source
			}
			opts := export.Options{Format: f, FilePath: output, PrettyJSON: pretty, Overwrite: overwrite, Title: title}

			if output == "" {
				return export.Write(cmd.OutOrStdout(), rows, opts)
			}
			if err := export.NewExporter(opts).Export(rows); err != nil {
				return err
			}
			a.logger.Info("exported wishlist", "id", id, "format", f, "rows", len(rows), "path", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "txt", "export format: txt, csv, json, md")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing output file")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent JSON output")
	return cmd
}
