package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/charts"
	"github.com/ramonehamilton/wishlist-companion/internal/stats"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

func (a *app) statsCmd() *cobra.Command {
	var (
		id        string
		top       int
		asJSON    bool
		chartPath string
		open      bool
	)

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Summarize the rolls of a wishlist",
		Long: `Counts rolls per weapon and tag for a wishlist file (or stdin), or for a
stored wishlist with --id. --chart writes an HTML page with bar and pie
charts of the summary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				items []wishlist.Item
				opts  stats.Options
			)

			if id != "" {
				svc, closeDB, err := a.openLibrary(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDB()

				wl, err := svc.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				items, err = svc.Items(cmd.Context(), id, repository.ItemFilter{})
				if err != nil {
					return err
				}
				so := svc.SerializeOptions()
				opts = stats.Options{Variants: so.Variants, Names: so.Names, Parse: &wl.Stats}
			} else {
				text, err := readInput(cmd, inputArg(args))
				if err != nil {
					return err
				}
				src, err := a.fileCatalog()
				if err != nil {
					return err
				}
				doc, ps := wishlist.ParseWithStats(text)
				items = doc.Items
				so := serializeOptions(src)
				opts = stats.Options{Variants: so.Variants, Names: so.Names, Parse: &ps}
			}

			summary := stats.Compute(items, opts)

			if chartPath != "" {
				cfg := charts.DefaultChartConfig()
				cfg.Title = "Wishlist summary"
				if err := charts.RenderSummaryFile(chartPath, summary, top, cfg); err != nil {
					return err
				}
				a.logger.Info("chart written", "path", chartPath)
				if open {
					if err := charts.OpenInBrowser(chartPath); err != nil {
						a.logger.Warn("failed to open browser", "error", err)
					}
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			return printSummary(cmd.OutOrStdout(), summary, top)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "summarize a stored wishlist instead of a file")
	cmd.Flags().IntVar(&top, "top", 10, "number of weapons to list (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML chart page to this path")
	cmd.Flags().BoolVar(&open, "open", false, "open the chart page in a browser")
	return cmd
}

func printSummary(w io.Writer, s *stats.Summary, top int) error {
	fmt.Fprintf(w, "Rolls:          %d\n", s.Rolls)
	fmt.Fprintf(w, "Weapons:        %d (%.1f rolls each)\n", s.Weapons, s.AverageRollsPerWeapon())
	fmt.Fprintf(w, "Untagged:       %d\n", s.Untagged)
	fmt.Fprintf(w, "With notes:     %d\n", s.WithNotes)
	fmt.Fprintf(w, "With citation:  %d\n", s.WithCitation)
	if n := s.Noise.Total(); n > 0 {
		fmt.Fprintf(w, "Dropped:        %d (malformed %d, unrecognized %d, invalid perks %d, unknown tags %d)\n",
			n, s.Noise.Malformed, s.Noise.Unrecognized, s.Noise.InvalidPerks, s.Noise.DroppedTags)
	}

	if len(s.Tags) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TAG\tROLLS")
		for _, tc := range s.Tags {
			fmt.Fprintf(tw, "%s\t%d\n", tc.Tag, tc.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	weapons := s.TopWeapons(top)
	if len(weapons) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WEAPON\tROLLS\tTRASH\tAUTHORS")
	for _, wc := range weapons {
		name := wc.Name
		if name == "" {
			name = fmt.Sprint(wc.WeaponHash)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", name, wc.Rolls, wc.Trash, wc.Authors)
	}
	return tw.Flush()
}
