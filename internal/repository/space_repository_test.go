package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coworkdir/admin-api/internal/model"
)

var spaceColumnNames = []string{
	"id", "space_id", "space_name", "space_type", "city_id", "city_name",
	"space_category", "short_description", "long_description",
	"amenities", "pricing", "address", "contact", "images",
	"status", "is_featured", "is_deleted", "created_at", "updated_at",
}

func spaceRow(rows *sqlmock.Rows, id uint64, spaceID, name string) *sqlmock.Rows {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(id, spaceID, name, "Coworking", uint64(3), "Pune",
		"Premium", "short", "long",
		[]byte(`["wifi","coffee"]`), []byte(`{"hotDesk":4999}`), nil, []byte(`{"name":"Asha","email":"a@x.io","phone":"9999999999"}`), []byte(`[]`),
		"active", true, false, ts, ts)
}

type fixedIDs struct{ id string }

func (f fixedIDs) Next(context.Context, EntityKind, int) (string, error) { return f.id, nil }

func TestSpaceFindAllBuildsLiveScopedSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	where := regexp.QuoteMeta("WHERE s.is_deleted = 0 AND s.status = ? AND (LOWER(s.space_name) LIKE ? OR LOWER(s.space_type) LIKE ? OR s.city_id IN (SELECT id FROM locations WHERE LOWER(name) LIKE ?))")
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM spaces s LEFT JOIN locations l .*"+where).
		WithArgs("active", "%acme%", "%acme%", "%acme%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(where+regexp.QuoteMeta(" ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?")).
		WithArgs("active", "%acme%", "%acme%", "%acme%", 5, 5).
		WillReturnRows(spaceRow(sqlmock.NewRows(spaceColumnNames), 7, "SP-2025-007", "Acme Hub"))

	repo := NewSpaceRepo(db, fixedIDs{})
	items, total, err := repo.FindAll(context.Background(), SpaceFilter{Status: "active", Search: "Acme"}, Page{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.Len(t, items, 1)

	sp := items[0]
	assert.Equal(t, "SP-2025-007", sp.SpaceID)
	assert.Equal(t, "Pune", sp.CityName)
	assert.Equal(t, []string{"wifi", "coffee"}, sp.Amenities)
	require.NotNil(t, sp.Pricing)
	assert.Equal(t, 4999.0, *sp.Pricing.HotDesk)
	assert.Nil(t, sp.Address)
	assert.Equal(t, "Asha", sp.Contact.Name)
	assert.Empty(t, sp.Images)
	assert.True(t, sp.IsFeatured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpaceFindAllNormalizesPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("LIMIT \\? OFFSET \\?").WithArgs(DefaultPageSize, 0).
		WillReturnRows(sqlmock.NewRows(spaceColumnNames))

	items, total, err := NewSpaceRepo(db, fixedIDs{}).FindAll(context.Background(), SpaceFilter{}, Page{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpaceFindAllPagesAdvanceOffset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	order := regexp.QuoteMeta(" ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?")
	for _, off := range []int{4, 8} {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(10)))
		rows := sqlmock.NewRows(spaceColumnNames)
		for i := 0; i < 4 && off+i < 10; i++ {
			id := uint64(10 - off - i)
			rows = spaceRow(rows, id, fmt.Sprintf("SP-2025-%03d", id), "Hub")
		}
		mock.ExpectQuery(order).WithArgs(4, off).WillReturnRows(rows)
	}

	repo := NewSpaceRepo(db, fixedIDs{})
	p2, total, err := repo.FindAll(context.Background(), SpaceFilter{}, Page{Page: 2, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
	require.Len(t, p2, 4)
	assert.Equal(t, "SP-2025-006", p2[0].SpaceID)

	p3, _, err := repo.FindAll(context.Background(), SpaceFilter{}, Page{Page: 3, Limit: 4})
	require.NoError(t, err)
	require.Len(t, p3, 2)
	assert.Equal(t, "SP-2025-001", p3[1].SpaceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpaceFindByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.is_deleted = 0 AND s.id = ? LIMIT 1")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(spaceColumnNames))

	_, err = NewSpaceRepo(db, fixedIDs{}).FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpaceCreateAssignsGeneratedKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO spaces").
		WithArgs("SP-2025-003", "Acme Hub", "Coworking", uint64(3), "Premium", "", "",
			`[]`, nil, nil, nil, `[]`, "pending", false).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("s.id = ?")).WithArgs(uint64(11)).
		WillReturnRows(spaceRow(sqlmock.NewRows(spaceColumnNames), 11, "SP-2025-003", "Acme Hub"))

	sp := &model.Space{SpaceName: "Acme Hub", SpaceType: "Coworking", CityID: 3, SpaceCategory: "Premium", Status: "pending"}
	require.NoError(t, NewSpaceRepo(db, fixedIDs{"SP-2025-003"}).Create(context.Background(), sp))
	assert.EqualValues(t, 11, sp.ID)
	assert.Equal(t, "SP-2025-003", sp.SpaceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpaceCreateDuplicateKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO spaces").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'SP-2025-003'"})

	err = NewSpaceRepo(db, fixedIDs{"SP-2025-003"}).Create(context.Background(), &model.Space{})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSpaceSoftDeleteMissingOrDeleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE spaces SET is_deleted = 1 WHERE is_deleted = 0 AND id = ?")).
		WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewSpaceRepo(db, fixedIDs{}).SoftDeleteByID(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpaceExistsByNameAndCityExcludesSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM spaces WHERE is_deleted = 0 AND LOWER(space_name) = LOWER(?) AND city_id = ? AND id <> ? LIMIT 1")).
		WithArgs("acme hub", uint64(3), uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := NewSpaceRepo(db, fixedIDs{}).ExistsByNameAndCity(context.Background(), "acme hub", 3, 11)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM spaces WHERE is_deleted = 0 AND LOWER(space_name) = LOWER(?) AND city_id = ? LIMIT 1")).
		WithArgs("ACME HUB", uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err = NewSpaceRepo(db, fixedIDs{}).ExistsByNameAndCity(context.Background(), "ACME HUB", 3, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
