package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/digest"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist/consolidate"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serializeOptions(src catalog.Source) wishlist.SerializeOptions {
	if src == nil {
		return wishlist.SerializeOptions{}
	}
	r := catalog.NewResolver(src)
	return wishlist.SerializeOptions{Names: r.Name, Variants: r.Variants}
}

func (a *app) parseCmd() *cobra.Command {
	var statsOnly bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a wishlist and print it as JSON",
		Long: `Parses wishlist text from a file (or stdin) and prints the document and
parse statistics as JSON. Malformed lines are dropped and counted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			doc, stats := wishlist.ParseWithStats(text)
			if statsOnly {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Document *wishlist.Document  `json:"document"`
				Stats    wishlist.ParseStats `json:"stats"`
			}{doc, stats})
		},
	}
	cmd.Flags().BoolVar(&statsOnly, "stats", false, "print only parse statistics")
	return cmd
}

func (a *app) normalizeCmd() *cobra.Command {
	var (
		output      string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Rewrite a wishlist in canonical form",
		Long: `Parses a wishlist and serializes it again: rolls are grouped per weapon and
author, duplicates are removed and lines are sorted. With a catalog, group
headers are added and every roll is written for each variant of its weapon.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			src, err := a.fileCatalog()
			if err != nil {
				return err
			}

			doc, stats := wishlist.ParseWithStats(text)
			opts := serializeOptions(src)
			opts.Title = title
			opts.Description = description

			a.logger.Info("normalized wishlist",
				"items", stats.Items, "malformed", stats.Malformed, "unrecognized", stats.Unrecognized)
			return writeOutput(cmd, output, wishlist.SerializeDocument(doc, opts))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&title, "title", "", "override the title header")
	cmd.Flags().StringVar(&description, "description", "", "override the description header")
	return cmd
}

func (a *app) consolidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate [file]",
		Short: "Merge the rolls of each weapon into one summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			src, err := a.fileCatalog()
			if err != nil {
				return err
			}

			doc := wishlist.Parse(text)
			return writeJSON(cmd.OutOrStdout(), consolidate.All(doc.Items, serializeOptions(src).Variants))
		},
	}
	return cmd
}

func (a *app) digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest [file...]",
		Short: "Print the content digest of each file",
		Long: `Prints the SHA-256 content version token of each file, in the format of
sha256sum. Without arguments stdin is digested.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			texts := make([]string, len(args))
			for i, path := range args {
				text, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				texts[i] = text
			}

			sums, err := digest.All(cmd.Context(), texts)
			if err != nil {
				return err
			}
			for i, sum := range sums {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, args[i])
			}
			return nil
		},
	}
	return cmd
}
