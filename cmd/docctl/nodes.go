package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

func printNode(cmd *cobra.Command, verb string, n *models.Node) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, n.Name, n.ID)
}

func newMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Long: `Create a folder. Every folder above the new one must already exist.

Examples:
  docctl mkdir Archive
  docctl mkdir "Properties/12 Elm Street/Permits"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segs := splitPath(args[0])
			if len(segs) == 0 {
				return &domain.ValidationError{Message: "a folder name is required"}
			}
			if err := a.open(cmd.Context(), path.Join(segs[:len(segs)-1]...)); err != nil {
				return err
			}
			folder, err := a.sess.CreateFolder(cmd.Context(), segs[len(segs)-1])
			if err != nil {
				return err
			}
			printNode(cmd, "Created", folder)
			return nil
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a document or folder",
		Long: `Rename a document or folder in place. Renaming a document to another
extension changes its file type.

Examples:
  docctl rename "Templates/Lease Template.docx" "Lease Template 2025.docx"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renamed, err := a.sess.Rename(cmd.Context(), node.ID, args[1])
			if err != nil {
				return err
			}
			printNode(cmd, "Renamed to", renamed)
			return nil
		},
	}
}

func newTagCmd(a *app) *cobra.Command {
	var (
		property string
		tags     []string
		clearTags    bool
	)

	cmd := &cobra.Command{
		Use:     "tag <path>",
		Aliases: []string{"meta"},
		Short:   "Set the linked property and tags",
		Long: `Replace the linked property and tags of a document or folder.
The tags given replace the current ones; --clear removes them all.

Examples:
  docctl tag "Properties/48 Harbor View/Lease 2024.pdf" --property "48 Harbor View" --tag lease --tag signed
  docctl tag Welcome.txt --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearTags && len(tags) > 0 {
				return &domain.ValidationError{Message: "--clear cannot be combined with --tag"}
			}
			node, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("property") {
				property = node.LinkedProperty
			}
			if !clearTags && !cmd.Flags().Changed("tag") {
				tags = node.Tags
			}
			updated, err := a.sess.EditMetadata(cmd.Context(), node.ID, property, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: property=%s tags=%v\n", updated.Name, orDash(updated.LinkedProperty), updated.Tags)
			return nil
		},
	}

	cmd.Flags().StringVarP(&property, "property", "p", "", "linked property (empty to unlink)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable)")
	cmd.Flags().BoolVar(&clearTags, "clear", false, "remove all tags")
	return cmd
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "mv <path> <folder>",
		Aliases: []string{"move"},
		Short:   "Move a document or folder",
		Long: `Move a document or folder into another folder. Use "/" for the root.

Examples:
  docctl mv Welcome.txt Templates
  docctl mv "Templates/Lease Template.docx" /`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := a.resolveFolder(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			node, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			moved, err := a.sess.Move(cmd.Context(), node.ID, parentID)
			if err != nil {
				return err
			}
			printNode(cmd, "Moved", moved)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <path>...",
		Aliases: []string{"delete"},
		Short:   "Move documents or folders to the trash",
		Long: `Move documents or folders to the trash. Folders take their contents with them.

Examples:
  docctl rm Welcome.txt
  docctl rm "Properties/12 Elm Street" "Properties/48 Harbor View/Site Plan.dwg"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, 0, len(args))
			for _, p := range args {
				node, err := a.resolve(cmd.Context(), p)
				if err != nil {
					return err
				}
				ids = append(ids, node.ID)
			}
			affected, err := a.sess.Delete(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d item(s) to the trash\n", affected)
			return nil
		},
	}
}
