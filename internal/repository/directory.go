package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"assignment_service/internal/domain"
)

// DirectoryRepository reads the users and work items that the account and
// catalog services replicate into this database.
type DirectoryRepository struct {
	db DB
}

func NewDirectoryRepository(db DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, role, name FROM users WHERE id = $1`

	var user domain.User
	if err := pgxscan.Get(ctx, r.db, &user, query, id); err != nil {
		return nil, handleError(err)
	}
	return &user, nil
}

func (r *DirectoryRepository) GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error) {
	query := `SELECT id, title FROM work_items WHERE id = $1`

	var item domain.WorkItem
	if err := pgxscan.Get(ctx, r.db, &item, query, id); err != nil {
		return nil, handleError(err)
	}
	return &item, nil
}
