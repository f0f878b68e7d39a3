// Package storage persists annotated projects so an analysis can be
// reopened without re-running the search.
//
// Information Hiding:
// - Storage backend implementation details hidden behind ProjectStorage
// - Allows swapping between memory and SQLite without API changes
// - Records are restored with their annotation state intact

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/richinex/motifmap/model"
)

// ErrProjectNotFound is returned when loading an unknown project id.
var ErrProjectNotFound = errors.New("project not found")

// Project is everything needed to resume an analysis: the records with
// their annotations, the query registry, the motif names for reports, and
// the settings and catalog fingerprint the annotations were computed with.
type Project struct {
	ID                   string
	Name                 string
	CreatedAt            time.Time
	CatalogFingerprint   string
	MinAlignedLength     int
	ExcludeHighFrequency bool

	Queries   []string // registry contents, insertion order
	Hits      []*model.Hit
	QuerySeqs []*model.QuerySequence
	Names     map[string]string // accession -> motif name
}

// ProjectInfo is the listing view of a saved project.
type ProjectInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewProject creates an empty project with a fresh id.
func NewProject(name string) *Project {
	return &Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Unix(time.Now().Unix(), 0), // stored with second precision
		Names:     make(map[string]string),
	}
}

// Registry rebuilds the query registry from the saved ids.
func (p *Project) Registry() *model.QueryRegistry {
	r := model.NewQueryRegistry()
	r.Load(p.Queries)
	return r
}

// Records returns hits followed by query sequences.
func (p *Project) Records() []model.Record {
	records := make([]model.Record, 0, len(p.Hits)+len(p.QuerySeqs))
	for _, h := range p.Hits {
		records = append(records, h)
	}
	for _, q := range p.QuerySeqs {
		records = append(records, q)
	}
	return records
}

// ProjectStorage defines the interface for saving and resuming projects.
type ProjectStorage interface {
	// Save stores a project, replacing any previous version with the same id.
	Save(ctx context.Context, p *Project) error

	// Load returns a saved project or ErrProjectNotFound.
	Load(ctx context.Context, id string) (*Project, error)

	// Delete removes a project. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// ListProjects lists saved projects, newest first.
	ListProjects(ctx context.Context) ([]ProjectInfo, error)

	// Exists checks if a project exists.
	Exists(ctx context.Context, id string) (bool, error)
}

// cloneProject deep-copies p so stored and returned projects never share
// records or annotation slices.
func cloneProject(p *Project) *Project {
	c := *p
	c.Queries = append([]string(nil), p.Queries...)

	c.Hits = make([]*model.Hit, 0, len(p.Hits))
	for _, h := range p.Hits {
		hit := model.NewHit(nil, *h)
		hit.Restore(h.Snapshot())
		c.Hits = append(c.Hits, hit)
	}

	c.QuerySeqs = make([]*model.QuerySequence, 0, len(p.QuerySeqs))
	for _, q := range p.QuerySeqs {
		qs := model.NewQuerySequence(q.ID, q.Sequence)
		qs.Restore(q.Snapshot())
		c.QuerySeqs = append(c.QuerySeqs, qs)
	}

	c.Names = make(map[string]string, len(p.Names))
	for k, v := range p.Names {
		c.Names[k] = v
	}
	return &c
}
