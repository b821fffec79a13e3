package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ramonehamilton/wishlist-companion/internal/littlelight"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

func (a *app) littleLightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "littlelight",
		Aliases: []string{"ll"},
		Short:   "Convert between LittleLight JSON and wishlist text",
	}
	cmd.AddCommand(a.llToTextCmd(), a.llFromTextCmd(), a.llFromNamesCmd())
	return cmd
}

func (a *app) llToTextCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "to-txt [file.json]",
		Short: "Convert a LittleLight wishlist to wishlist text",
		Long: `Each LittleLight roll expands to one wishlist line per perk combination,
since the text format cannot express perk columns.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			wl, err := littlelight.Decode(bytes.NewReader([]byte(text)))
			if err != nil {
				return err
			}
			src, err := a.fileCatalog()
			if err != nil {
				return err
			}
			doc := littlelight.ToDocument(wl, nil)
			return writeOutput(cmd, output, wishlist.SerializeDocument(doc, serializeOptions(src)))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) llFromTextCmd() *cobra.Command {
	var (
		output      string
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "from-txt [file.txt]",
		Short: "Convert wishlist text to a LittleLight wishlist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			doc := wishlist.Parse(text)
			if name == "" {
				name = doc.Title
			}
			if description == "" {
				description = doc.Description
			}
			return encodeLittleLight(cmd, output, littlelight.FromItems(name, description, doc.Items))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "", "wishlist name (default: the title header)")
	cmd.Flags().StringVar(&description, "description", "", "wishlist description")
	return cmd
}

func (a *app) llFromNamesCmd() *cobra.Command {
	var (
		output      string
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "from-names <rolls.yaml>",
		Short: "Build a LittleLight wishlist from rolls written with display names",
		Long: `Reads a YAML (or JSON) list of rolls that name the weapon and perks, for
example:

  - weapon: Austringer
    trait1: [Outlaw, Rapid Hit]
    trait2: [Kill Clip]
    mode: pve
    reasoning: Great add clear

Names are resolved against the catalog, tolerating small typos. Every
name that is not matched exactly is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.fileCatalog()
			if err != nil {
				return err
			}
			if src == nil {
				return errNoCatalog
			}
			text, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}

			var rolls []littlelight.NamedRoll
			if err := yaml.Unmarshal([]byte(text), &rolls); err != nil {
				return fmt.Errorf("failed to parse rolls: %w", err)
			}

			wl, warnings := littlelight.FromNamedRolls(src, name, description, rolls)
			for _, w := range warnings {
				a.logger.Warn("name resolution", "kind", w.Kind, "name", w.Name, "matched", w.Matched)
			}
			return encodeLittleLight(cmd, output, wl)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "Wishlist", "wishlist name")
	cmd.Flags().StringVar(&description, "description", "", "wishlist description")
	return cmd
}

func encodeLittleLight(cmd *cobra.Command, path string, wl *littlelight.Wishlist) error {
	if path == "" {
		return littlelight.Encode(cmd.OutOrStdout(), wl)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := littlelight.Encode(f, wl); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
