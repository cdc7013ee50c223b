package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EntityKind describes a table whose rows carry a generated business key of
// the form <Prefix>-<year>-<seq>.
type EntityKind struct {
	Name   string // id_sequences.entity
	Prefix string
	Table  string
	Column string
}

var (
	SpaceKind = EntityKind{Name: "space", Prefix: "SP", Table: "spaces", Column: "space_id"}
	LeadKind  = EntityKind{Name: "lead", Prefix: "LD", Table: "leads", Column: "lead_id"}
)

// IDGenerator hands out the next business key for kind within year.
type IDGenerator interface {
	Next(ctx context.Context, kind EntityKind, year int) (string, error)
}

// FormatID renders prefix-year-seq with seq zero-padded to three digits.
// Sequences past 999 simply grow wider.
func FormatID(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}

// ParseSequence returns the numeric suffix of id, which must start with
// prefix-year-.
func ParseSequence(prefix string, year int, id string) (int, error) {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	suffix, ok := strings.CutPrefix(id, head)
	if !ok || suffix == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedIdentifier, id, err)
	}
	return n, nil
}

// lastSequence returns the greatest sequence already issued for kind in
// year, or 0.  Soft-deleted rows count: their keys stay reserved.  Ordering
// by length first keeps SP-2025-1000 above SP-2025-999.
func lastSequence(ctx context.Context, q Querier, kind EntityKind, year int) (int, error) {
	query := fmt.Sprintf(
		"SELECT %[1]s FROM %[2]s WHERE %[1]s LIKE ? ORDER BY CHAR_LENGTH(%[1]s) DESC, %[1]s DESC LIMIT 1",
		kind.Column, kind.Table)

	var last string
	err := q.QueryRowContext(ctx, query, fmt.Sprintf("%s-%d-%%", kind.Prefix, year)).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ParseSequence(kind.Prefix, year, last)
}

// ScanGenerator derives the next key from the greatest stored key.  Two
// concurrent creates can read the same maximum; the loser fails on the
// unique index with ErrDuplicate.
type ScanGenerator struct {
	db Querier
}

func NewScanGenerator(db Querier) *ScanGenerator { return &ScanGenerator{db: db} }

func (g *ScanGenerator) Next(ctx context.Context, kind EntityKind, year int) (string, error) {
	last, err := lastSequence(ctx, g.db, kind, year)
	if err != nil {
		return "", fmt.Errorf("next %s id: %w", kind.Name, err)
	}
	return FormatID(kind.Prefix, year, last+1), nil
}

// CounterGenerator keeps one row per (entity, year) in id_sequences and
// bumps it with a single atomic UPDATE, so concurrent creates never receive
// the same key.  A missing row is seeded from the greatest stored key,
// which keeps keys issued by ScanGenerator reserved.
type CounterGenerator struct {
	db Querier
}

func NewCounterGenerator(db Querier) *CounterGenerator { return &CounterGenerator{db: db} }

func (g *CounterGenerator) Next(ctx context.Context, kind EntityKind, year int) (string, error) {
	seq, ok, err := g.bump(ctx, kind, year)
	if err != nil {
		return "", fmt.Errorf("next %s id: %w", kind.Name, err)
	}
	if !ok {
		last, err := lastSequence(ctx, g.db, kind, year)
		if err != nil {
			return "", fmt.Errorf("seed %s sequence: %w", kind.Name, err)
		}
		if _, err := g.db.ExecContext(ctx,
			"INSERT IGNORE INTO id_sequences (entity, year, seq) VALUES (?, ?, ?)",
			kind.Name, year, last); err != nil {
			return "", fmt.Errorf("seed %s sequence: %w", kind.Name, err)
		}
		if seq, ok, err = g.bump(ctx, kind, year); err != nil || !ok {
			if err == nil {
				err = errors.New("sequence row missing after seed")
			}
			return "", fmt.Errorf("next %s id: %w", kind.Name, err)
		}
	}
	return FormatID(kind.Prefix, year, int(seq)), nil
}

// bump increments the counter and returns the new value via LAST_INSERT_ID.
// ok is false when the row does not exist yet.
func (g *CounterGenerator) bump(ctx context.Context, kind EntityKind, year int) (int64, bool, error) {
	res, err := g.db.ExecContext(ctx,
		"UPDATE id_sequences SET seq = LAST_INSERT_ID(seq + 1) WHERE entity = ? AND year = ?",
		kind.Name, year)
	if err != nil {
		return 0, false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return 0, false, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return seq, true, nil
}
