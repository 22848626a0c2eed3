package handlers

import (
	"context"
	"net/http"
	"strconv"

	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// ProductLister reads the mirrored catalog table.
type ProductLister interface {
	ListProducts(ctx context.Context, offset, limit int) ([]map[string]interface{}, int64, error)
}

type ProductHandler struct {
	products ProductLister
	logger   *logger.Logger
}

func NewProductHandler(products ProductLister, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = 20
	}
	offset := (page - 1) * limit

	products, total, err := h.products.ListProducts(c.Request.Context(), offset, limit)
	if err != nil {
		h.logger.Error("Failed to list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
