// Package repository holds the MySQL data access layer.  Every read and
// write on soft-deletable tables goes through a liveScope, so deleted rows
// are invisible unless a method says otherwise.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or is soft-deleted.
// The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique index.
var ErrDuplicate = errors.New("duplicate key")

// ErrMalformedIdentifier is returned when the greatest stored business key
// for a year has a suffix that is not a number.  Generation stops rather
// than restarting the sequence.
var ErrMalformedIdentifier = errors.New("malformed identifier")

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}
