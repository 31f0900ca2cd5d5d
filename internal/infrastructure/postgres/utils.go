package postgres

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/catalogo-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isFKViolation referencia a una fila que ya no existe o borrado de una fila referenciada (23503).
func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}

// constraintCategoryTaxonomy la lanza el trigger de products cuando una columna de
// categoría apunta a una categoría de la otra taxonomía.
const constraintCategoryTaxonomy = "ck_products_category_taxonomy"

// isTaxonomyViolation check_violation (23514) del trigger de taxonomía.
func isTaxonomyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514" && pgErr.ConstraintName == constraintCategoryTaxonomy
	}
	return false
}

// isConnError pérdida de conectividad con la base: errores de red, de conexión (clase 08) o
// apagado del servidor (57P).
func isConnError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	return errors.As(err, &connErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		pgconn.Timeout(err)
}

// mapErr traduce errores de pgx a los errores de dominio; los demás se devuelven igual.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return errors.Join(domain.ErrDuplicate, err)
	case isFKViolation(err):
		return errors.Join(domain.ErrInvalidInput, err)
	case isTaxonomyViolation(err):
		return errors.Join(domain.ErrTaxonomyMismatch, err)
	case isConnError(err):
		return errors.Join(domain.ErrStorageUnavailable, err)
	default:
		return err
	}
}
