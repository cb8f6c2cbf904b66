package handlers

import (
	"net/http"

	"restaurant-orders-api/config"
	"restaurant-orders-api/models"
	"restaurant-orders-api/sanitize"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// minMenuItemPrice is the lowest accepted menu price.
var minMenuItemPrice = decimal.NewFromInt(2)

type MenuItemRequest struct {
	Title      string          `json:"title" binding:"required"`
	Price      decimal.Decimal `json:"price" binding:"required"`
	CategoryID uint            `json:"category_id" binding:"required"`
	Available  *bool           `json:"available"`
}

// ListMenuItems returns menu items with category/price/search filters,
// ordering and pagination
func ListMenuItems(c *gin.Context) {
	query := config.DB.Model(&models.MenuItem{}).Preload("Category")

	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = menu_items.category_id").
			Where("categories.title LIKE ?", "%"+category+"%")
	}
	if toPrice := c.Query("to_price"); toPrice != "" {
		if limit, err := decimal.NewFromString(toPrice); err == nil {
			query = query.Where("price <= ?", limit)
		}
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if available := c.Query("available"); available == "true" {
		query = query.Where("available = ?", true)
	}

	switch c.Query("ordering") {
	case "price":
		query = query.Order("price asc")
	case "-price":
		query = query.Order("price desc")
	case "-title":
		query = query.Order("title desc")
	default:
		query = query.Order("title asc")
	}

	var total int64
	query.Count(&total)

	page, size := pageParams(c)
	var items []models.MenuItem
	query.Offset((page - 1) * size).Limit(size).Find(&items)

	c.JSON(http.StatusOK, gin.H{
		"count":      total,
		"page":       page,
		"page_size":  size,
		"menu_items": items,
	})
}

// GetMenuItem returns a single menu item
func GetMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := config.DB.Preload("Category").First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_item": item})
}

// CreateMenuItem adds a menu item (manager only)
func CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sanitize.CleanAll(&req.Title)

	if req.Price.LessThan(minMenuItemPrice) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price should not be less than 2.00"})
		return
	}

	var category models.Category
	if err := config.DB.First(&category, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
		return
	}

	var existing models.MenuItem
	if result := config.DB.Where("title = ?", req.Title).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Menu item title already exists"})
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	item := models.MenuItem{
		Title:      req.Title,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		Available:  available,
	}
	if err := config.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"menu_item": item})
}

// UpdateMenuItem updates a menu item (manager only). Cart lines keep the
// unit price they snapshotted before the change.
func UpdateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := config.DB.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sanitize.CleanAll(&req.Title)

	if req.Price.LessThan(minMenuItemPrice) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price should not be less than 2.00"})
		return
	}
	var category models.Category
	if err := config.DB.First(&category, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
		return
	}

	updates := map[string]interface{}{
		"title":       req.Title,
		"price":       req.Price,
		"category_id": req.CategoryID,
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if err := config.DB.Model(&item).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update menu item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_item": item})
}

// DeleteMenuItem removes a menu item (manager only)
func DeleteMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := config.DB.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if err := config.DB.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete menu item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
