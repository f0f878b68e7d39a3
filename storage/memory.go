// Package storage provides in-memory project storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and one-off runs that are not saved

package storage

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStorage implements ProjectStorage using an in-memory map.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		projects: make(map[string]*Project),
	}
}

// Save stores a copy of the project.
func (s *InMemoryStorage) Save(ctx context.Context, p *Project) error {
	copied := cloneProject(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = copied
	return nil
}

// Load returns a copy of a saved project.
func (s *InMemoryStorage) Load(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return cloneProject(p), nil
}

// Delete removes a project.
func (s *InMemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects, id)
	return nil
}

// ListProjects lists saved projects, newest first.
func (s *InMemoryStorage) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ProjectInfo, 0, len(s.projects))
	for _, p := range s.projects {
		infos = append(infos, ProjectInfo{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Exists checks if a project exists.
func (s *InMemoryStorage) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.projects[id]
	return ok, nil
}

// Verify InMemoryStorage implements ProjectStorage
var _ ProjectStorage = (*InMemoryStorage)(nil)
