package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coworkdir/admin-api/internal/model"
)

// SpaceFilter narrows FindAll.  Empty fields are ignored.  City and Search
// match location names as case-insensitive substrings.
type SpaceFilter struct {
	Status string
	City   string
	Search string
}

const (
	spaceFrom = "spaces s LEFT JOIN locations l ON l.id = s.city_id"
	spaceCols = `s.id, s.space_id, s.space_name, s.space_type, s.city_id, COALESCE(l.name, ''),
		s.space_category, s.short_description, s.long_description,
		s.amenities, s.pricing, s.address, s.contact, s.images,
		s.status, s.is_featured, s.is_deleted, s.created_at, s.updated_at`
	spaceOrder = "s.created_at DESC, s.id DESC"

	citiesLike = "s.city_id IN (SELECT id FROM locations WHERE LOWER(name) LIKE ?)"
)

// SpaceRepo encapsulates all queries against the spaces table.
type SpaceRepo struct {
	db  Querier
	ids IDGenerator
	now func() time.Time
}

// NewSpaceRepo wires the repository with the identifier generator chosen at
// startup.
func NewSpaceRepo(db Querier, ids IDGenerator) *SpaceRepo {
	return &SpaceRepo{db: db, ids: ids, now: time.Now}
}

// FindAll returns one page of live spaces, newest first, and the number of
// live spaces matching the same filter.
func (r *SpaceRepo) FindAll(ctx context.Context, f SpaceFilter, p Page) ([]model.Space, int64, error) {
	sc := liveScope("s")
	if f.Status != "" {
		sc.and("s.status = ?", f.Status)
	}
	if f.City != "" {
		sc.and(citiesLike, likeContains(f.City))
	}
	if f.Search != "" {
		pat := likeContains(f.Search)
		sc.anyOf([]string{
			"LOWER(s.space_name) LIKE ?",
			"LOWER(s.space_type) LIKE ?",
			citiesLike,
		}, pat, pat, pat)
	}
	return findPage(ctx, r.db, spaceFrom, spaceCols, spaceOrder, sc, p, scanSpace)
}

// FindFeatured returns every live featured space, newest first.
func (r *SpaceRepo) FindFeatured(ctx context.Context) ([]model.Space, error) {
	sc := liveScope("s").and("s.is_featured = 1")
	q := "SELECT " + spaceCols + " FROM " + spaceFrom + " WHERE " + sc.sql() + " ORDER BY " + spaceOrder
	return queryAll(ctx, r.db, q, sc.bind(), scanSpace)
}

func (r *SpaceRepo) FindByID(ctx context.Context, id uint64) (*model.Space, error) {
	return r.findOne(ctx, liveScope("s").and("s.id = ?", id))
}

// FindBySpaceID looks a live space up by its business key.
func (r *SpaceRepo) FindBySpaceID(ctx context.Context, spaceID string) (*model.Space, error) {
	return r.findOne(ctx, liveScope("s").and("s.space_id = ?", spaceID))
}

func (r *SpaceRepo) findOne(ctx context.Context, sc *scope) (*model.Space, error) {
	q := "SELECT " + spaceCols + " FROM " + spaceFrom + " WHERE " + sc.sql() + " LIMIT 1"
	sp, err := scanSpace(r.db.QueryRowContext(ctx, q, sc.bind()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// Create assigns the next SP-<year>-<seq> key and inserts the row.  On
// success sp carries its ID, SpaceID and timestamps.
func (r *SpaceRepo) Create(ctx context.Context, sp *model.Space) error {
	spaceID, err := r.ids.Next(ctx, SpaceKind, r.now().UTC().Year())
	if err != nil {
		return err
	}
	args, err := spaceValues(sp)
	if err != nil {
		return err
	}

	const q = `INSERT INTO spaces
		(space_id, space_name, space_type, city_id, space_category, short_description, long_description,
		 amenities, pricing, address, contact, images, status, is_featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, append([]any{spaceID}, args...)...)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.reload(ctx, sp, uint64(id))
}

// UpdateByID overwrites every mutable column of a live space.  The business
// key, soft-delete flag and created_at are never touched.
func (r *SpaceRepo) UpdateByID(ctx context.Context, id uint64, sp *model.Space) error {
	args, err := spaceValues(sp)
	if err != nil {
		return err
	}
	sc := liveScope("").and("id = ?", id)
	q := `UPDATE spaces SET
		space_name = ?, space_type = ?, city_id = ?, space_category = ?, short_description = ?,
		long_description = ?, amenities = ?, pricing = ?, address = ?, contact = ?, images = ?,
		status = ?, is_featured = ?
		WHERE ` + sc.sql()
	res, err := r.db.ExecContext(ctx, q, append(args, sc.args...)...)
	if err != nil {
		return translate(err)
	}
	if err := requireAffected(res); err != nil {
		// MySQL reports 0 affected rows for an update that changes nothing,
		// so confirm the row is really gone before saying so.
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
	}
	return r.reload(ctx, sp, id)
}

// SoftDeleteByID flags a live space as deleted.  Missing and already
// deleted rows both yield ErrNotFound.
func (r *SpaceRepo) SoftDeleteByID(ctx context.Context, id uint64) error {
	sc := liveScope("").and("id = ?", id)
	res, err := r.db.ExecContext(ctx, "UPDATE spaces SET is_deleted = 1 WHERE "+sc.sql(), sc.bind()...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// HardDeleteByID physically removes a space whether or not it is
// soft-deleted.  Under the scan strategy the key of the newest space can be
// issued again afterwards; the counter strategy never reissues a key.
func (r *SpaceRepo) HardDeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM spaces WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ExistsByNameAndCity reports whether a live space other than excludeID
// (0 for none) has the same name, compared case-insensitively, in cityID.
func (r *SpaceRepo) ExistsByNameAndCity(ctx context.Context, name string, cityID, excludeID uint64) (bool, error) {
	sc := liveScope("").
		and("LOWER(space_name) = LOWER(?)", name).
		and("city_id = ?", cityID)
	if excludeID != 0 {
		sc.and("id <> ?", excludeID)
	}
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM spaces WHERE "+sc.sql()+" LIMIT 1", sc.bind()...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByCity counts live spaces referencing a location.
func (r *SpaceRepo) CountByCity(ctx context.Context, cityID uint64) (int64, error) {
	sc := liveScope("").and("city_id = ?", cityID)
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spaces WHERE "+sc.sql(), sc.bind()...).Scan(&n)
	return n, err
}

func (r *SpaceRepo) reload(ctx context.Context, sp *model.Space, id uint64) error {
	fresh, err := r.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload space %d: %w", id, err)
	}
	*sp = *fresh
	return nil
}

// spaceValues returns the mutable columns in INSERT/UPDATE order.
func spaceValues(sp *model.Space) ([]any, error) {
	amenities, err := jsonList(sp.Amenities)
	if err != nil {
		return nil, err
	}
	images, err := jsonList(sp.Images)
	if err != nil {
		return nil, err
	}
	pricing, err := jsonValue(sp.Pricing)
	if err != nil {
		return nil, err
	}
	address, err := jsonValue(sp.Address)
	if err != nil {
		return nil, err
	}
	contact, err := jsonValue(sp.Contact)
	if err != nil {
		return nil, err
	}
	return []any{
		sp.SpaceName, sp.SpaceType, sp.CityID, sp.SpaceCategory, sp.ShortDescription,
		sp.LongDescription, amenities, pricing, address, contact, images,
		sp.Status, sp.IsFeatured,
	}, nil
}

func scanSpace(row rowScanner) (model.Space, error) {
	var (
		sp                                        model.Space
		amenities, pricing, address, contact, img []byte
	)
	if err := row.Scan(
		&sp.ID, &sp.SpaceID, &sp.SpaceName, &sp.SpaceType, &sp.CityID, &sp.CityName,
		&sp.SpaceCategory, &sp.ShortDescription, &sp.LongDescription,
		&amenities, &pricing, &address, &contact, &img,
		&sp.Status, &sp.IsFeatured, &sp.IsDeleted, &sp.CreatedAt, &sp.UpdatedAt,
	); err != nil {
		return model.Space{}, err
	}

	var err error
	if sp.Amenities, err = decodeList(amenities); err != nil {
		return model.Space{}, fmt.Errorf("space %d amenities: %w", sp.ID, err)
	}
	if sp.Images, err = decodeList(img); err != nil {
		return model.Space{}, fmt.Errorf("space %d images: %w", sp.ID, err)
	}
	if sp.Pricing, err = decodeJSON[model.Pricing](pricing); err != nil {
		return model.Space{}, fmt.Errorf("space %d pricing: %w", sp.ID, err)
	}
	if sp.Address, err = decodeJSON[model.Address](address); err != nil {
		return model.Space{}, fmt.Errorf("space %d address: %w", sp.ID, err)
	}
	if sp.Contact, err = decodeJSON[model.Contact](contact); err != nil {
		return model.Space{}, fmt.Errorf("space %d contact: %w", sp.ID, err)
	}
	return sp, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
