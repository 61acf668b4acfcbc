package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	models "propdocs/internal/domain/models/docsystem"
	"propdocs/internal/listing"
)

func newLsCmd(a *app) *cobra.Command {
	var (
		sortField  string
		sortOrder  string
		filterKind string
		properties []string
		types      []string
		tags       []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "ls [folder]",
		Aliases: []string{"list"},
		Short:   "List a folder",
		Long: `List the contents of a folder, grouped by the active filter view.

Folders are given as slash-separated names or ids starting at the root.

Examples:
  docctl ls
  docctl ls "Properties/12 Elm Street" --sort name --order asc
  docctl ls Properties --filter type --type PDF --type Word
  docctl ls --filter tags --tag lease`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortState, err := listing.ParseSort(sortField, sortOrder)
			if err != nil {
				return err
			}
			kind, err := listing.ParseKind(filterKind)
			if err != nil {
				return err
			}

			var folder string
			if len(args) == 1 {
				folder = args[0]
			}
			if err := a.open(cmd.Context(), folder); err != nil {
				return err
			}

			filter := listing.FilterState{
				Kind:               kind,
				SelectedProperties: listing.NewSet(properties...),
				SelectedTypes:      listing.NewSet(types...),
				SelectedTags:       tags,
			}
			out := cmd.OutOrStdout()

			// a filter view with nothing picked would list nothing
			if nothingSelected(filter) {
				values := a.sess.FilterValues(kind)
				if jsonOutput {
					return outputJSON(out, values)
				}
				fmt.Fprintf(out, "Pick one or more %s values:\n", kind)
				for _, v := range values {
					fmt.Fprintf(out, "  %s\n", v)
				}
				return nil
			}

			groups := a.sess.Listing(filter, sortState)
			if jsonOutput {
				return outputJSON(out, groups)
			}
			return writeListing(out, a, groups)
		},
	}

	cmd.Flags().StringVar(&sortField, "sort", "", "sort by date_added, name, owner or value")
	cmd.Flags().StringVar(&sortOrder, "order", "", "asc or desc")
	cmd.Flags().StringVarP(&filterKind, "filter", "f", "", "filter view: property, type, tags or recent")
	cmd.Flags().StringSliceVar(&properties, "property", nil, "property to show (with --filter property)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "file type to show (with --filter type)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to show (with --filter tags)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}

func nothingSelected(f listing.FilterState) bool {
	switch f.Kind {
	case listing.KindProperty:
		return len(f.SelectedProperties) == 0
	case listing.KindType:
		return len(f.SelectedTypes) == 0
	case listing.KindTags:
		return len(f.SelectedTags) == 0
	}
	return false
}

func writeListing(w io.Writer, a *app, groups []listing.Group) error {
	crumbs := a.sess.Breadcrumbs()
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, " > "))

	if len(groups) == 0 {
		fmt.Fprintln(w, "\n(empty)")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintf(w, "\n%s (%s)\n", g.Key, g.Caption())
		if err := writeNodes(w, g.Nodes); err != nil {
			return err
		}
	}
	return nil
}

func newTreeCmd(a *app) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree [folder]",
		Short: "Print the folder hierarchy",
		Long: `Print a folder and everything below it, fetching each folder on the way.

Examples:
  docctl tree
  docctl tree Properties --depth 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var folder string
			if len(args) == 1 {
				folder = args[0]
			}
			if err := a.open(cmd.Context(), folder); err != nil {
				return err
			}
			return a.walk(cmd.Context(), cmd.OutOrStdout(), 0, depth)
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "levels to descend (0 = unlimited)")
	return cmd
}

// walk prints the current view and descends into each folder, returning to
// the current folder before the next sibling.
func (a *app) walk(ctx context.Context, w io.Writer, level, maxDepth int) error {
	nodes := listing.Sort(a.sess.View().Nodes, listing.SortState{Field: listing.FieldName, Order: listing.Asc})
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), treeLabel(n))
		if !n.IsFolder || (maxDepth > 0 && level+1 >= maxDepth) {
			continue
		}
		if err := a.sess.EnterFolder(ctx, n.ID); err != nil {
			return err
		}
		if err := a.walk(ctx, w, level+1, maxDepth); err != nil {
			return err
		}
		if err := a.sess.Up(); err != nil {
			return err
		}
	}
	return nil
}

func treeLabel(n *models.Node) string {
	if n.IsFolder {
		return n.Name + "/"
	}
	return fmt.Sprintf("%s [%s]", n.Name, kindOf(n))
}
