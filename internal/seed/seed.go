// Package seed fills a store with a sample property portfolio. Node ids are
// derived from their paths so the data is identical on every run.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	models "propdocs/internal/domain/models/docsystem"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	"propdocs/internal/filetypes"
)

var namespace = uuid.MustParse("6f1c2b8e-3d4a-5e6f-8a9b-0c1d2e3f4a5b")

// Base is the date the sample portfolio was "uploaded"
var Base = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// NodeID returns the id the seeder gives the node at p, e.g. "Properties/12 Elm Street"
func NodeID(p string) string {
	return uuid.NewSHA1(namespace, []byte(p)).String()
}

// CommentID returns the id of the n-th sample comment
func CommentID(n int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("comment/%d", n))).String()
}

type entry struct {
	path     string
	folder   bool
	property string
	tags     []string
	owner    string
	value    float64
	size     int64
}

var tree = []entry{
	{path: "Properties", folder: true},
	{path: "Properties/12 Elm Street", folder: true, property: "12 Elm St", tags: []string{"residential"}},
	{path: "Properties/12 Elm Street/Purchase Agreement.pdf", property: "12 Elm St", tags: []string{"legal", "2024"}, owner: "Joanna Reyes", value: 450000, size: 482113},
	{path: "Properties/12 Elm Street/Inspection Report.docx", property: "12 Elm St", tags: []string{"inspection"}, owner: "Marcus Bell", size: 120554},
	{path: "Properties/12 Elm Street/Photos", folder: true, property: "12 Elm St"},
	{path: "Properties/12 Elm Street/Photos/front.jpg", property: "12 Elm St", tags: []string{"exterior"}, owner: "Marcus Bell", size: 2310442},
	{path: "Properties/12 Elm Street/Photos/kitchen.png", property: "12 Elm St", tags: []string{"interior"}, owner: "Marcus Bell", size: 1893004},
	{path: "Properties/48 Harbor View", folder: true, property: "48 Harbor View", tags: []string{"commercial"}},
	{path: "Properties/48 Harbor View/Lease 2024.pdf", property: "48 Harbor View", tags: []string{"legal", "lease", "2024"}, owner: "Priya Natarajan", value: 36000, size: 301877},
	{path: "Properties/48 Harbor View/Rent Roll.xlsx", property: "48 Harbor View", tags: []string{"finance"}, owner: "Priya Natarajan", value: 1250000, size: 88210},
	{path: "Properties/48 Harbor View/Site Plan.dwg", property: "48 Harbor View", owner: "Marcus Bell", size: 5120330},
	{path: "Templates", folder: true},
	{path: "Templates/Lease Template.docx", tags: []string{"lease", "template"}, owner: "Joanna Reyes", size: 40211},
	{path: "Welcome.txt", owner: "Joanna Reyes", size: 912},
}

// Users are the sample mention directory
var Users = []models.User{
	{ID: "joanna", DisplayName: "Joanna Reyes", Email: "joanna.reyes@example.com"},
	{ID: "marcus", DisplayName: "Marcus Bell", Email: "marcus.bell@example.com"},
	{ID: "priya", DisplayName: "Priya Natarajan", Email: "priya@example.com"},
}

// Seeder writes the sample portfolio through the repositories
type Seeder struct {
	nodes    docsysRepo.NodeRepository
	comments docsysRepo.CommentRepository
	users    docsysRepo.UserRepository
	catalog  *filetypes.Catalog
	logger   *slog.Logger
}

// NewSeeder creates a seeder
func NewSeeder(
	nodes docsysRepo.NodeRepository,
	comments docsysRepo.CommentRepository,
	users docsysRepo.UserRepository,
	catalog *filetypes.Catalog,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		nodes:    nodes,
		comments: comments,
		users:    users,
		catalog:  catalog,
		logger:   logger,
	}
}

// Nodes returns the sample nodes in creation order, parents first
func (s *Seeder) Nodes() []*models.Node {
	out := make([]*models.Node, 0, len(tree))
	for i, e := range tree {
		added := Base.Add(time.Duration(i) * 24 * time.Hour)
		n := &models.Node{
			ID:             NodeID(e.path),
			Name:           path.Base(e.path),
			IsFolder:       e.folder,
			LinkedProperty: e.property,
			Tags:           append([]string{}, e.tags...),
			Owner:          e.owner,
			Value:          e.value,
			Size:           e.size,
			DateAdded:      added,
			DateModified:   added.Add(time.Duration(len(tree)-i) * time.Hour),
		}
		if dir := path.Dir(e.path); dir != "." {
			parent := NodeID(dir)
			n.ParentID = &parent
		}
		if !e.folder {
			n.FileType = s.catalog.Lookup(n.Name)
		}
		out = append(out, n)
	}
	return out
}

// Seed inserts users, nodes and a sample comment thread. It stops at the
// first error; running it twice fails on the first node with a conflict.
func (s *Seeder) Seed(ctx context.Context) error {
	for i := range Users {
		if err := s.users.Upsert(ctx, &Users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", Users[i].ID, err)
		}
	}

	nodes := s.Nodes()
	for _, n := range nodes {
		if err := s.nodes.Create(ctx, n); err != nil {
			return fmt.Errorf("seed %s: %w", n.Name, err)
		}
		s.logger.Debug("seeded node", "id", n.ID, "name", n.Name, "folder", n.IsFolder)
	}

	docID := NodeID("Properties/12 Elm Street/Purchase Agreement.pdf")
	rootID := CommentID(1)
	thread := []*models.Comment{
		{
			ID:         rootID,
			DocumentID: docID,
			Author:     "joanna",
			AuthorName: "Joanna Reyes",
			Text:       "@marcus.bell can you confirm the closing date on this page?",
			Annotation: &models.Annotation{
				ID:   uuid.NewSHA1(namespace, []byte("annotation/1")).String(),
				Page: 1,
				Rect: models.Rect{X: 12.5, Y: 40, Width: 35, Height: 6},
			},
			Mentions:  []string{"marcus.bell"},
			CreatedAt: Base.Add(48 * time.Hour),
		},
		{
			ID:         CommentID(2),
			DocumentID: docID,
			ParentID:   &rootID,
			Author:     "marcus",
			AuthorName: "Marcus Bell",
			Text:       "Confirmed, March 1st.",
			Mentions:   []string{},
			CreatedAt:  Base.Add(50 * time.Hour),
		},
	}
	for _, c := range thread {
		c.UpdatedAt = c.CreatedAt
		if err := s.comments.Create(ctx, c); err != nil {
			return fmt.Errorf("seed comment: %w", err)
		}
	}

	s.logger.Info("seeded sample portfolio",
		"nodes", len(nodes),
		"users", len(Users),
		"comments", len(thread),
	)
	return nil
}

// Paths lists the sample paths, for tools that want to print the tree
func Paths() []string {
	out := make([]string, len(tree))
	for i, e := range tree {
		out[i] = e.path
		if e.folder {
			out[i] += "/"
		}
	}
	return out
}

// IsSeeded reports whether the root sample folder already exists
func (s *Seeder) IsSeeded(ctx context.Context) (bool, error) {
	n, err := s.nodes.FindByName(ctx, nil, strings.Split(tree[0].path, "/")[0])
	if err != nil {
		return false, err
	}
	return n != nil, nil
}
