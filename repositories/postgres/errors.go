package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL error codes the repositories translate
const (
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
	pqForeignKeyViolation = "23503"
)

// isConstraintViolation reports whether err is a pq constraint error
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation, pqCheckViolation, pqForeignKeyViolation:
		return true
	}
	return false
}
