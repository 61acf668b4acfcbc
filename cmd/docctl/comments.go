package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"propdocs/internal/annotation"
	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

// page coordinates on the command line are already percentages
var pageBox = annotation.Box{Width: 100, Height: 100}

func parseRect(s string) (annotation.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return annotation.Box{}, &domain.ValidationError{Message: fmt.Sprintf("rect %q: want x,y,width,height", s)}
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return annotation.Box{}, &domain.ValidationError{Message: fmt.Sprintf("rect %q: %v", s, err)}
		}
		v[i] = f
	}
	return annotation.Box{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}, nil
}

func writeComment(w io.Writer, c *models.Comment, indent string) {
	author := c.AuthorName
	if author == "" {
		author = c.Author
	}
	anchor := ""
	if a := c.Annotation; a != nil {
		anchor = fmt.Sprintf(" p.%d @ %.0f,%.0f %.0fx%.0f", a.Page, a.Rect.X, a.Rect.Y, a.Rect.Width, a.Rect.Height)
	}
	fmt.Fprintf(w, "%s%s  %s (%s)%s\n", indent, c.ID, author, formatDate(c.CreatedAt), anchor)
	fmt.Fprintf(w, "%s  %s\n", indent, c.Text)
	for _, r := range c.Children {
		writeComment(w, r, indent+"    ")
	}
}

func newCommentsCmd(a *app) *cobra.Command {
	var (
		page       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "comments <document>",
		Short: "Show the comment threads of a document",
		Long: `Show every comment thread of a document and how many annotations are
drawn on the selected page.

Examples:
  docctl comments "Properties/12 Elm Street/Purchase Agreement.pdf" --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := a.sess.Comments(cmd.Context(), doc.ID, page)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return outputJSON(out, view)
			}
			fmt.Fprintf(out, "%s: %d thread(s), %d annotation(s) on page %d\n",
				doc.Name, len(view.Threads), len(view.Overlays), page)
			for _, t := range view.Threads {
				fmt.Fprintln(out)
				writeComment(out, t, "")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page whose annotations are counted")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}

func newCommentCmd(a *app) *cobra.Command {
	var (
		page int
		rect string
	)

	cmd := &cobra.Command{
		Use:   "comment <document> <text>...",
		Short: "Comment on a region of a page",
		Long: `Start a comment thread anchored to a rectangle on a page. The rectangle is
x,y,width,height in percent of the page and is clamped to fit it.
Mention people with @handle (see "docctl users").

Examples:
  docctl comment "Properties/12 Elm Street/Purchase Agreement.pdf" --page 1 --rect 10,20,30,5 "Check the closing date @marcus.bell"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, err := parseRect(rect)
			if err != nil {
				return err
			}
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if doc.IsFolder {
				return &domain.ValidationError{Message: fmt.Sprintf("%q is a folder", args[0])}
			}

			comment, ok, err := a.sess.AddComment(cmd.Context(), doc.ID, selection, pageBox, page, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !ok {
				return &domain.ValidationError{Message: fmt.Sprintf("rect %q on page %d does not mark a region", rect, page)}
			}
			writeComment(cmd.OutOrStdout(), comment, "")
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&rect, "rect", "0,0,100,100", "x,y,width,height in percent")
	return cmd
}

func newReplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <comment-id> <text>...",
		Short: "Reply to a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := a.sess.Reply(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			writeComment(cmd.OutOrStdout(), reply, "")
			return nil
		},
	}
}

func newCommentEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment-edit <comment-id> <text>...",
		Short: "Change the text of one of your comments",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.sess.EditComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			writeComment(cmd.OutOrStdout(), c, "")
			return nil
		},
	}
}

func newCommentRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment-rm <comment-id>",
		Short: "Delete one of your comments and its replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.DeleteComment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Comment deleted")
			return nil
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the people who can be mentioned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.sess.Users(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "HANDLE\tNAME\tEMAIL\tID")
			for _, u := range users {
				fmt.Fprintf(tw, "@%s\t%s\t%s\t%s\n", u.Handle(), u.DisplayName, orDash(u.Email), u.ID)
			}
			return tw.Flush()
		},
	}
}
