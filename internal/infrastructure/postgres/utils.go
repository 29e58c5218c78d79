package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/agrostock-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// constraintBatchAvailable es el CHECK (available >= 0) de batches.
const constraintBatchAvailable = "batches_available_check"

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func pgCode(err error) string {
	if pgErr := pgError(err); pgErr != nil {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isConcurrencyConflict: serialización, deadlock o lock_timeout.
func isConcurrencyConflict(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// mapError traduce errores de PostgreSQL a errores de dominio; los demás pasan sin cambios.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isConcurrencyConflict(err):
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
	case pgCode(err) == codeCheckViolation:
		// el saldo negativo solo ocurre si alguien escribe el lote sin pasar por el motor
		if pgError(err).ConstraintName == constraintBatchAvailable {
			return fmt.Errorf("%w: %v", domain.ErrInsufficientStock, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return err
}
