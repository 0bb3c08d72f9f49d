package crewshift

import (
	"errors"
	"strings"

	crewshifterrors "go-crewperf/internal/crewshift/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueSessionRow = "uq_crew_shifts_session_row"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == uniqueSessionRow {
			return crewshifterrors.ErrDuplicateShift
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, uniqueSessionRow) {
		return crewshifterrors.ErrDuplicateShift
	}

	return err
}
