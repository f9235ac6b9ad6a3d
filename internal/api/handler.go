package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/catalog"
	"github.com/Checker-Finance/moa-adapter/internal/retrieval"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

// Retriever runs the fetch/cache/fallback policy.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (model.RetrievalResult, error)
}

// Catalog is the product list used for autocomplete.
type Catalog interface {
	List(ctx context.Context) []model.CatalogItem
	MergeAll(ctx context.Context, rows []model.MarketRow, effectiveDate string) ([]model.Category, error)
	ImportReplace(items []model.CatalogItem)
	Entries() []model.CatalogItem
}

// Migrator converts the legacy on-disk layout.
type Migrator interface {
	Run() []string
}

// Handler serves the market data API.
type Handler struct {
	logger    *zap.Logger
	retriever Retriever
	catalog   Catalog
	migrator  Migrator
	loc       *time.Location
}

// NewHandler creates a Handler. loc is used for display timestamps and
// defaults to the market timezone.
func NewHandler(logger *zap.Logger, retriever Retriever, cat Catalog, migrator Migrator, loc *time.Location) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = rocdate.NewSystemClock("").Location()
	}
	return &Handler{
		logger:    logger,
		retriever: retriever,
		catalog:   cat,
		migrator:  migrator,
		loc:       loc,
	}
}

// Scrape handles GET /api/scrape. Every well-formed result, including
// "unavailable", is returned with 200.
func (h *Handler) Scrape(c *fiber.Ctx) error {
	var req ScrapeRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.retriever.Retrieve(c.UserContext(), req.toRetrievalRequest())
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidCategory) ||
			errors.Is(err, retrieval.ErrMissingDate) ||
			errors.Is(err, rocdate.ErrInvalidDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.Error("api.scrape.failed",
			zap.String("date", req.Date),
			zap.String("type", req.Type),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.Status(fiber.StatusOK).JSON(toScrapeResponse(res, h.loc))
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	return c.JSON(h.catalog.List(c.UserContext()))
}

// UpdateProducts handles POST /api/products: rows are merged into the list of
// the category they are tagged with.
func (h *Handler) UpdateProducts(c *fiber.Ctx) error {
	var req ProductsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updated, err := h.catalog.MergeAll(c.UserContext(), req.Data, req.Date)
	if err != nil {
		h.logger.Error("api.products.merge_failed", zap.String("date", req.Date), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update lists"})
	}
	if updated == nil {
		updated = []model.Category{}
	}
	return c.JSON(ProductsUpdateResponse{Message: "Lists updated successfully", Updated: updated})
}

// ImportProducts handles POST /api/products/import with a multipart "file"
// field holding an xlsx workbook. The parsed rows replace the imported list.
func (h *Handler) ImportProducts(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	def := defaultScrapeType
	if t := c.FormValue("type"); t != "" {
		cat, err := model.ParseCategory(t)
		if err != nil || cat == model.CategoryAll {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be 'Vegetable' or 'Fruit'"})
		}
		def = cat
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer f.Close()

	rows, err := catalog.ParseWorkbook(f)
	if err != nil {
		h.logger.Warn("api.products.import_failed", zap.String("file", fh.Filename), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	items := catalog.ItemsFromRows(rows, def)
	h.catalog.ImportReplace(items)
	h.logger.Info("api.products.imported", zap.String("file", fh.Filename), zap.Int("items", len(items)))
	return c.JSON(ImportResponse{Count: len(items), Data: items})
}

// ImportedProducts handles GET /api/products/imported.
func (h *Handler) ImportedProducts(c *fiber.Ctx) error {
	items := h.catalog.Entries()
	return c.JSON(ImportResponse{Count: len(items), Data: items})
}

// Migrate handles GET /api/migrate.
func (h *Handler) Migrate(c *fiber.Ctx) error {
	logs := h.migrator.Run()
	if logs == nil {
		logs = []string{}
	}
	return c.JSON(MigrateResponse{Status: "success", Message: "Migration completed", Logs: logs})
}
