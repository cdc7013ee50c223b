package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coworkdir/admin-api/internal/model"
)

const locationCols = "id, name, description, image, is_active, created_at, updated_at"

// LocationRepo covers the locations table.  Locations are not soft-deleted.
type LocationRepo struct {
	db Querier
}

func NewLocationRepo(db Querier) *LocationRepo { return &LocationRepo{db: db} }

// List returns locations newest first.  active filters on is_active when
// non-nil.
func (r *LocationRepo) List(ctx context.Context, active *bool) ([]model.Location, error) {
	q := "SELECT " + locationCols + " FROM locations"
	var args []any
	if active != nil {
		q += " WHERE is_active = ?"
		args = append(args, *active)
	}
	q += " ORDER BY created_at DESC, id DESC"
	return queryAll(ctx, r.db, q, args, scanLocation)
}

func (r *LocationRepo) FindByID(ctx context.Context, id uint64) (*model.Location, error) {
	loc, err := scanLocation(r.db.QueryRowContext(ctx,
		"SELECT "+locationCols+" FROM locations WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ExistsByName compares names case-insensitively, skipping excludeID.
func (r *LocationRepo) ExistsByName(ctx context.Context, name string, excludeID uint64) (bool, error) {
	q := "SELECT 1 FROM locations WHERE LOWER(name) = LOWER(?)"
	args := []any{name}
	if excludeID != 0 {
		q += " AND id <> ?"
		args = append(args, excludeID)
	}
	var one int
	err := r.db.QueryRowContext(ctx, q+" LIMIT 1", args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *LocationRepo) Create(ctx context.Context, loc *model.Location) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO locations (name, description, image, is_active) VALUES (?, ?, ?, ?)",
		loc.Name, loc.Description, loc.Image, loc.IsActive)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.FindByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*loc = *fresh
	return nil
}

func (r *LocationRepo) Update(ctx context.Context, loc *model.Location) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE locations SET name = ?, description = ?, image = ?, is_active = ? WHERE id = ?",
		loc.Name, loc.Description, loc.Image, loc.IsActive, loc.ID)
	if err != nil {
		return translate(err)
	}
	fresh, err := r.FindByID(ctx, loc.ID)
	if err != nil {
		return err
	}
	*loc = *fresh
	return nil
}

// Delete removes the row.  Callers must check for referencing spaces first.
func (r *LocationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// CountActive counts locations with is_active = 1.
func (r *LocationRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations WHERE is_active = 1").Scan(&n)
	return n, err
}

func scanLocation(row rowScanner) (model.Location, error) {
	var l model.Location
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Image, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}
