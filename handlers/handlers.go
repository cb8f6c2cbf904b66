package handlers

import (
	"net/http"
	"strconv"

	"restaurant-orders-api/events"
	"restaurant-orders-api/workflow"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	carts  *workflow.CartService
	orders *workflow.OrderService
)

// Init wires the workflow services used by the handlers.
func Init(db *gorm.DB, pub *events.Publisher) {
	carts = workflow.NewCartService(db)
	orders = workflow.NewOrderService(db, pub)
}

// respondError maps the workflow error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case workflow.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case workflow.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case workflow.IsPermission(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case workflow.IsTransition(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
	}
}

// pageParams reads page/page_size query params with the usual bounds.
func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if size < 1 || size > 100 {
		size = 10
	}
	return page, size
}
