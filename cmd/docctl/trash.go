package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTrashCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := a.sess.Trash(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return outputJSON(out, nodes)
			}
			if len(nodes) == 0 {
				fmt.Fprintln(out, "Trash is empty")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "NAME\tTYPE\tPATH\tDELETED\tID")
			for _, n := range nodes {
				deleted := "-"
				if n.DeletedAt != nil {
					deleted = formatDate(*n.DeletedAt)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.Name, kindOf(n), orDash(n.Path), deleted, n.ID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>...",
		Short: "Restore items from the trash",
		Long: `Restore trashed items by id (see "docctl trash"). Items go back to their
original folder, or to the root when that folder is gone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			affected, err := a.sess.Restore(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d item(s)\n", affected)
			return nil
		},
	}
}

func newPurgeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <id>...",
		Short: "Permanently delete items from the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("purge cannot be undone; pass --yes to confirm")
			}
			affected, err := a.sess.Purge(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d item(s)\n", affected)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm permanent deletion")
	return cmd
}
