package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// CategoryHandler administración de los árboles de categorías (protegido).
type CategoryHandler struct {
	uc *category.UseCase
}

// NewCategoryHandler construye el handler.
func NewCategoryHandler(uc *category.UseCase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

// Create godoc
// @Summary      Crear categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCategoryRequest  true  "Datos de la categoría"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	in.VendorID = scopedVendor(c, in.VendorID)
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener categoría por ID
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la categoría"
// @Success      200  {object}  dto.CategoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [get]
func (h *CategoryHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Rename godoc
// @Summary      Renombrar categoría
// @Description  Solo cambia el nombre; padre, profundidad y asignaciones se conservan.
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la categoría"
// @Param        body  body  dto.RenameCategoryRequest  true  "Nuevo nombre"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [patch]
func (h *CategoryHandler) Rename(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.RenameCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.uc.Rename(c.UserContext(), id, in.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Move godoc
// @Summary      Cambiar el padre de una categoría
// @Description  parent_id nulo la convierte en raíz. Recalcula la profundidad del subárbol.
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la categoría"
// @Param        body  body  dto.MoveCategoryRequest  true  "Nuevo padre"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories/{id}/parent [put]
func (h *CategoryHandler) Move(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.MoveCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.uc.Move(c.UserContext(), id, in.ParentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar categorías en cascada
// @Description  Borra los subárboles completos; sus productos pasan a "Uncategorized".
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DeleteCategoriesRequest  true  "IDs a borrar"
// @Success      200   {object}  dto.DeleteCategoriesResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/categories/delete [post]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	var in dto.DeleteCategoriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.uc.Delete(c.UserContext(), in.IDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteOne godoc
// @Summary      Borrar una categoría en cascada
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la categoría"
// @Success      200  {object}  dto.DeleteCategoriesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) DeleteOne(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Delete(c.UserContext(), []int64{id})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Merge godoc
// @Summary      Fusionar categorías
// @Description  Mueve los productos del origen al destino. El origen no puede tener subcategorías.
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MergeCategoriesRequest  true  "Origen, destino y alcance"
// @Success      200   {object}  dto.MergeCategoriesResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories/merge [post]
func (h *CategoryHandler) Merge(c *fiber.Ctx) error {
	var in dto.MergeCategoriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.uc.Merge(c.UserContext(), in.SourceID, in.TargetID, in.Scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Tree godoc
// @Summary      Árbol de categorías
// @Description  Nodos anidados con conteos directos y jerárquicos de productos.
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        taxonomy   query  string  true   "vendor | store"
// @Param        vendor_id  query  int     false  "Acota la taxonomía vendor a un vendedor"
// @Success      200  {object}  dto.CategoryTreeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/categories/tree [get]
func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	taxonomy, err := entity.ParseTaxonomy(c.Query("taxonomy"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "taxonomy debe ser vendor o store"})
	}
	var vendorID *int64
	if v := int64(c.QueryInt("vendor_id", 0)); v > 0 {
		vendorID = &v
	}
	vendorID = scopedVendor(c, vendorID)
	if taxonomy != entity.TaxonomyVendor {
		vendorID = nil
	}
	out, err := h.uc.ListTree(c.UserContext(), taxonomy, vendorID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Count godoc
// @Summary      Conteo jerárquico de productos
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la categoría"
// @Success      200  {object}  dto.HierarchicalCountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id}/count [get]
func (h *CategoryHandler) Count(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.HierarchicalCount(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
