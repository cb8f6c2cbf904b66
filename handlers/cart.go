package handlers

import (
	"net/http"
	"strconv"

	"restaurant-orders-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AddToCartRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart lists the caller's cart lines with a running total
func GetCart(c *gin.Context) {
	userID := middleware.GetUserID(c)
	lines, err := carts.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(lines), "total": total, "cart": lines})
}

// AddToCart adds or increments a cart line
func AddToCart(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := carts.AddOrIncrement(userID, req.MenuItemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line})
}

// GetCartLine returns one owned cart line
func GetCartLine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	lineID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart line id"})
		return
	}

	line, err := carts.Get(userID, uint(lineID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line})
}

// UpdateCartLine overwrites the quantity on an owned line
func UpdateCartLine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	lineID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart line id"})
		return
	}

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := carts.SetQuantity(userID, uint(lineID), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line})
}

// RemoveCartLine deletes one owned line
func RemoveCartLine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	lineID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart line id"})
		return
	}

	if err := carts.Remove(userID, uint(lineID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart line removed"})
}

// ClearCart empties the caller's cart. Always succeeds.
func ClearCart(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := carts.Clear(userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
