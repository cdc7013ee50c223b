package repository

import "context"

// Bucket is one group of an aggregate count.
type Bucket struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// DashboardRepo runs the read-only aggregates behind the admin dashboard.
// Every aggregate ignores soft-deleted rows.
type DashboardRepo struct{ db Querier }

func NewDashboardRepo(db Querier) *DashboardRepo { return &DashboardRepo{db: db} }

// SpacesByStatus counts live spaces per status.
func (r *DashboardRepo) SpacesByStatus(ctx context.Context) ([]Bucket, error) {
	return r.group(ctx, "spaces s", "s.status", liveScope("s"), "", 0)
}

// SpacesByType counts live spaces per type, largest first.
func (r *DashboardRepo) SpacesByType(ctx context.Context) ([]Bucket, error) {
	return r.group(ctx, "spaces s", "s.space_type", liveScope("s"), "value DESC, name ASC", 0)
}

// SpacesByCity returns the limit cities with the most live spaces.  Spaces
// whose location row is gone are grouped under "Unknown".
func (r *DashboardRepo) SpacesByCity(ctx context.Context, limit int) ([]Bucket, error) {
	return r.group(ctx, "spaces s LEFT JOIN locations l ON l.id = s.city_id",
		"COALESCE(l.name, 'Unknown')", liveScope("s"), "value DESC, name ASC", limit)
}

// LeadsByStatus counts live leads per status.
func (r *DashboardRepo) LeadsByStatus(ctx context.Context) ([]Bucket, error) {
	return r.group(ctx, "leads d", "d.status", liveScope("d"), "", 0)
}

func (r *DashboardRepo) group(ctx context.Context, from, key string, sc *scope, orderBy string, limit int) ([]Bucket, error) {
	q := "SELECT " + key + " AS name, COUNT(*) AS value FROM " + from + " WHERE " + sc.sql() + " GROUP BY name"
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	args := sc.bind()
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return queryAll(ctx, r.db, q, args, func(row rowScanner) (Bucket, error) {
		var b Bucket
		err := row.Scan(&b.Name, &b.Value)
		return b, err
	})
}
