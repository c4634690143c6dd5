package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/utils"
)

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are treated as backend failures and never leaked verbatim.
func respondError(c *gin.Context, err error) {
	code := models.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case models.CodeNotAuthenticated:
		status = http.StatusUnauthorized
	case models.CodeForbidden:
		status = http.StatusForbidden
	case models.CodeNotFound:
		status = http.StatusNotFound
	case models.CodeDuplicatePending:
		status = http.StatusConflict
	case models.CodeValidationFailed:
		status = http.StatusBadRequest
	case models.CodeStoreUnavailable:
		status = http.StatusServiceUnavailable
		utils.SafeError("store failure: %v", err)
	}

	c.JSON(status, gin.H{"error": models.MessageOf(err), "code": code})
}
