package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts returns one page of products and the total count.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	page, err := h.service.ListProducts(c.UserContext(), queryNumber(c, "page"), queryNumber(c, "limit"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(page)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	payload, err := decodePayload(c)
	if err != nil {
		return badBody(c, err)
	}
	product, err := h.service.CreateProduct(c.UserContext(), payload)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(product)
}

// HandleUpdateProduct replaces the fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	payload, err := decodePayload(c)
	if err != nil {
		return badBody(c, err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// queryNumber returns the raw value of key, or "" when key is absent. A key
// given without a value (?limit=) reads as "0" so it is clamped to 1 instead
// of falling back to the default.
func queryNumber(c *fiber.Ctx, key string) string {
	args := c.Context().QueryArgs()
	if !args.Has(key) {
		return ""
	}
	if value := strings.TrimSpace(string(args.Peek(key))); value != "" {
		return value
	}
	return "0"
}

// decodePayload reads the body as a JSON object. An empty body is an empty
// object so that the schema reports every missing field.
func decodePayload(c *fiber.Ctx) (map[string]any, error) {
	payload := map[string]any{}
	body := c.Body()
	if len(body) == 0 {
		return payload, nil
	}
	if err := c.App().Config().JSONDecoder(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// ConflictResponse is the body of a 409 response.
type ConflictResponse struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (h *ProductHandler) writeError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError
	switch {
	case errors.Is(err, services.ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid id"})
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": validationErr.Violations.Tree()})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(ConflictResponse{
			Message: conflictErr.Message,
			Field:   conflictErr.Field,
		})
	default:
		h.logger.ErrorContext(c.UserContext(), "product request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
