package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// ErrValidation fila de importación sin un campo obligatorio (sku, name). La fila se omite.
	ErrValidation = errors.New("campo obligatorio ausente")
	// ErrCategoryResolutionFailed se agotaron los reintentos al resolver una cadena de categorías.
	ErrCategoryResolutionFailed = errors.New("no se pudo resolver la categoría")
	// ErrHasChildren la categoría origen de un merge tiene subcategorías.
	ErrHasChildren = errors.New("la categoría tiene subcategorías")
	// ErrBatchTransactionFailed falla de almacenamiento a mitad de un lote; el lote completo se revierte.
	ErrBatchTransactionFailed = errors.New("falló la transacción del lote")
	// ErrDeleteFailed el borrado en cascada se revirtió por completo.
	ErrDeleteFailed = errors.New("falló el borrado de categorías")
	// ErrCycle el cambio de padre convertiría al nodo en su propio ancestro.
	ErrCycle = errors.New("el cambio de padre crea un ciclo")
	// ErrTaxonomyMismatch las categorías involucradas pertenecen a taxonomías distintas.
	ErrTaxonomyMismatch = errors.New("las categorías pertenecen a taxonomías distintas")
	// ErrStorageUnavailable pérdida de conexión con el almacenamiento; es fatal para un import.
	ErrStorageUnavailable = errors.New("almacenamiento no disponible")
)
