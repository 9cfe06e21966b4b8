package http

import (
	"errors"
	"net/http"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CategoryHandler struct {
	catalog *app.CatalogService
	log     zerolog.Logger
}

func NewCategoryHandler(catalog *app.CatalogService, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, log: log}
}

type getCategoriesResponse struct {
	Success    bool                `json:"success"`
	Categories domain.CategoryTree `json:"categories"`
}

type noDataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type saveCategoriesRequest struct {
	Categories domain.CategoryTree `json:"categories" binding:"required"`
}

type saveCategoriesResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Get handles GET /api/get-categories.
func (h *CategoryHandler) Get(c *gin.Context) {
	tree, err := h.catalog.Categories(c.Request.Context())
	if errors.Is(err, domain.ErrDocumentNotFound) {
		c.JSON(http.StatusOK, noDataResponse{Success: false, Message: "No data found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read categories")
		c.JSON(http.StatusInternalServerError, saveCategoriesResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, getCategoriesResponse{Success: true, Categories: tree})
}

// Save handles POST /api/save-categories. The whole tree is replaced.
func (h *CategoryHandler) Save(c *gin.Context) {
	var req saveCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, saveCategoriesResponse{Success: false, Error: "No categories provided"})
		return
	}

	doc, err := h.catalog.SaveCategories(c.Request.Context(), req.Categories)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save categories")
		c.JSON(http.StatusInternalServerError, saveCategoriesResponse{Success: false, Error: err.Error()})
		return
	}
	h.log.Info().
		Int("categories", len(doc.Categories)).
		Time("updated_at", doc.UpdatedAt).
		Msg("Categories saved")
	c.JSON(http.StatusOK, saveCategoriesResponse{Success: true})
}
