package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coworkdir/admin-api/internal/model"
)

// LeadFilter narrows FindAll.  Search matches name, email, phone and
// enquired_for; Location matches the free-text location.
type LeadFilter struct {
	Status   string
	Location string
	Search   string
}

const (
	leadCols = `id, lead_id, name, email, phone, enquired_for, space_type, number_of_seats,
		location, message, date, status, is_deleted, created_at, updated_at`
	leadOrder = "created_at DESC, id DESC"
)

type LeadRepo struct {
	db  Querier
	ids IDGenerator
	now func() time.Time
}

func NewLeadRepo(db Querier, ids IDGenerator) *LeadRepo {
	return &LeadRepo{db: db, ids: ids, now: time.Now}
}

func (r *LeadRepo) FindAll(ctx context.Context, f LeadFilter, p Page) ([]model.Lead, int64, error) {
	sc := liveScope("")
	if f.Status != "" {
		sc.and("status = ?", f.Status)
	}
	if f.Location != "" {
		sc.and("LOWER(location) LIKE ?", likeContains(f.Location))
	}
	if f.Search != "" {
		pat := likeContains(f.Search)
		sc.anyOf([]string{
			"LOWER(name) LIKE ?",
			"LOWER(email) LIKE ?",
			"LOWER(phone) LIKE ?",
			"LOWER(enquired_for) LIKE ?",
		}, pat, pat, pat, pat)
	}
	return findPage(ctx, r.db, "leads", leadCols, leadOrder, sc, p, scanLead)
}

// FindRecent returns the n newest live leads.
func (r *LeadRepo) FindRecent(ctx context.Context, n int) ([]model.Lead, error) {
	sc := liveScope("")
	q := "SELECT " + leadCols + " FROM leads WHERE " + sc.sql() + " ORDER BY " + leadOrder + " LIMIT ?"
	return queryAll(ctx, r.db, q, sc.bind(n), scanLead)
}

func (r *LeadRepo) FindByID(ctx context.Context, id uint64) (*model.Lead, error) {
	return r.findOne(ctx, liveScope("").and("id = ?", id))
}

// FindByLeadID looks a live lead up by its business key.
func (r *LeadRepo) FindByLeadID(ctx context.Context, leadID string) (*model.Lead, error) {
	return r.findOne(ctx, liveScope("").and("lead_id = ?", leadID))
}

func (r *LeadRepo) findOne(ctx context.Context, sc *scope) (*model.Lead, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx, "SELECT "+leadCols+" FROM leads WHERE "+sc.sql()+" LIMIT 1", sc.bind()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create assigns the next LD-<year>-<seq> key and inserts the lead.
func (r *LeadRepo) Create(ctx context.Context, l *model.Lead) error {
	leadID, err := r.ids.Next(ctx, LeadKind, r.now().UTC().Year())
	if err != nil {
		return err
	}
	const q = `INSERT INTO leads
		(lead_id, name, email, phone, enquired_for, space_type, number_of_seats, location, message, date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, append([]any{leadID}, leadValues(l)...)...)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.reload(ctx, l, uint64(id))
}

// UpdateByID overwrites the mutable columns of a live lead.
func (r *LeadRepo) UpdateByID(ctx context.Context, id uint64, l *model.Lead) error {
	sc := liveScope("").and("id = ?", id)
	q := `UPDATE leads SET
		name = ?, email = ?, phone = ?, enquired_for = ?, space_type = ?, number_of_seats = ?,
		location = ?, message = ?, date = ?, status = ?
		WHERE ` + sc.sql()
	res, err := r.db.ExecContext(ctx, q, append(leadValues(l), sc.args...)...)
	if err != nil {
		return translate(err)
	}
	if err := requireAffected(res); err != nil {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
	}
	return r.reload(ctx, l, id)
}

// UpdateStatus sets only the status column.
func (r *LeadRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Lead, error) {
	sc := liveScope("").and("id = ?", id)
	if _, err := r.db.ExecContext(ctx, "UPDATE leads SET status = ? WHERE "+sc.sql(), append([]any{status}, sc.args...)...); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *LeadRepo) SoftDeleteByID(ctx context.Context, id uint64) error {
	sc := liveScope("").and("id = ?", id)
	res, err := r.db.ExecContext(ctx, "UPDATE leads SET is_deleted = 1 WHERE "+sc.sql(), sc.bind()...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *LeadRepo) reload(ctx context.Context, l *model.Lead, id uint64) error {
	fresh, err := r.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload lead %d: %w", id, err)
	}
	*l = *fresh
	return nil
}

func leadValues(l *model.Lead) []any {
	var seats, date any
	if l.NumberOfSeats != nil {
		seats = *l.NumberOfSeats
	}
	if l.Date != nil {
		date = l.Date.UTC()
	}
	return []any{
		l.Name, l.Email, l.Phone, l.EnquiredFor, l.SpaceType, seats,
		l.Location, l.Message, date, l.Status,
	}
}

func scanLead(row rowScanner) (model.Lead, error) {
	var (
		l     model.Lead
		seats sql.NullInt64
		date  sql.NullTime
	)
	if err := row.Scan(
		&l.ID, &l.LeadID, &l.Name, &l.Email, &l.Phone, &l.EnquiredFor, &l.SpaceType, &seats,
		&l.Location, &l.Message, &date, &l.Status, &l.IsDeleted, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return model.Lead{}, err
	}
	if seats.Valid {
		n := int(seats.Int64)
		l.NumberOfSeats = &n
	}
	if date.Valid {
		t := date.Time
		l.Date = &t
	}
	return l, nil
}
