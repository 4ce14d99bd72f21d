package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskboard/internal/adapters/storage"
	domain "taskboard/internal/domain/project"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store on the in-memory SQLite database.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db has the project schema (storage.InitDB)
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const projectColumns = `id, title, description, people, status, created_at`

// Append inserts a project; seq assigns its position.
// PRE: p.ID is unique
// POST: p is the last record by seq; an invalid record is rejected
func (s *SQLiteStore) Append(ctx context.Context, p domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.People, string(p.Status), p.CreatedAt.UTC().Format(timeLayout))
	return err
}

// List returns all projects ordered by insertion.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM project ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetByID retrieves a project by ID.
// POST: Returns ErrNotFound if absent
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM project WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, ErrNotFound
	}
	return p, err
}

// UpdateStatus changes the status of one project.
// POST: Returns ErrNotFound if no row matched
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE project SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (domain.Project, error) {
	var (
		p         domain.Project
		status    string
		createdAt string
	)
	if err := sc.Scan(&p.ID, &p.Title, &p.Description, &p.People, &status, &createdAt); err != nil {
		return domain.Project{}, err
	}
	p.Status = domain.Status(status)
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Project{}, err
	}
	p.CreatedAt = t
	return p, nil
}
