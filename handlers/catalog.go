package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/services"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

func (h *CatalogHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.Catalog.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) RecordUse(c *gin.Context) {
	h.Catalog.RecordUse(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Recorded"})
}
