// Package directory resolves the users and work items that assignments refer
// to. The records are owned by other services; this package only reads them.
package directory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
)

// Source is anything that can resolve users and work items.
type Source interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error)
}

type catalogFile struct {
	Users []struct {
		ID   string `yaml:"id"`
		Role string `yaml:"role"`
		Name string `yaml:"name"`
	} `yaml:"users"`
	WorkItems []struct {
		ID    string `yaml:"id"`
		Title string `yaml:"title"`
	} `yaml:"work_items"`
}

// Static serves a fixed set of users and work items, typically loaded from a
// YAML seed file for local runs.
type Static struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]domain.User
	workItems map[uuid.UUID]domain.WorkItem
}

func NewStatic() *Static {
	return &Static{
		users:     make(map[uuid.UUID]domain.User),
		workItems: make(map[uuid.UUID]domain.WorkItem),
	}
}

func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseStatic(data)
}

func ParseStatic(data []byte) (*Static, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	s := NewStatic()
	for i, u := range file.Users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			return nil, fmt.Errorf("users[%d]: invalid id %q: %w", i, u.ID, err)
		}
		role, ok := domain.ParseUserRole(u.Role)
		if !ok {
			return nil, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		s.AddUser(domain.User{ID: id, Role: role, Name: u.Name})
	}
	for i, w := range file.WorkItems {
		id, err := uuid.Parse(w.ID)
		if err != nil {
			return nil, fmt.Errorf("work_items[%d]: invalid id %q: %w", i, w.ID, err)
		}
		s.AddWorkItem(domain.WorkItem{ID: id, Title: w.Title})
	}
	return s, nil
}

func (s *Static) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Static) AddWorkItem(w domain.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workItems[w.ID] = w
}

func (s *Static) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &u, nil
}

func (s *Static) GetWorkItem(_ context.Context, id uuid.UUID) (*domain.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workItems[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &w, nil
}
