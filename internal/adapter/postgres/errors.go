package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/samber/oops"

	"kanba/internal/domain"
)

// translate maps driver errors onto domain sentinels, keeping the SQLSTATE
// and server message as oops context. unique is returned for
// unique_violation; pass nil to leave those unmapped.
func translate(code string, err error, unique error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return oops.Code(code).Wrap(domain.ErrNotFound)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return oops.Code(code).Wrap(err)
	}

	var sentinel error
	switch string(pqErr.Code) {
	case pgerrcode.NoDataFound:
		sentinel = domain.ErrNotFound
	case pgerrcode.InsufficientPrivilege:
		sentinel = domain.ErrForbidden
	case pgerrcode.UniqueViolation:
		sentinel = unique
	case pgerrcode.InvalidParameterValue,
		pgerrcode.InvalidTextRepresentation,
		pgerrcode.CheckViolation,
		pgerrcode.ForeignKeyViolation:
		sentinel = domain.ErrInvalidInput
	}

	b := oops.Code(code).With("sqlstate", string(pqErr.Code), "detail", pqErr.Message)
	if sentinel == nil {
		return b.Wrap(err)
	}
	return b.Wrap(sentinel)
}
