package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	models "propdocs/internal/domain/models/docsystem"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func kindOf(n *models.Node) string {
	if n.IsFolder {
		return "folder"
	}
	if n.FileType == "" {
		return "file"
	}
	return n.FileType
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatValue(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func writeNodes(w io.Writer, nodes []*models.Node) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tTYPE\tPROPERTY\tTAGS\tOWNER\tVALUE\tADDED\tID")
	for _, n := range nodes {
		name := n.Name
		if n.IsFolder {
			name += "/"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			name,
			kindOf(n),
			orDash(n.LinkedProperty),
			orDash(strings.Join(n.Tags, ",")),
			orDash(n.Owner),
			formatValue(n.Value),
			formatDate(n.DateAdded),
			n.ID,
		)
	}
	return tw.Flush()
}
