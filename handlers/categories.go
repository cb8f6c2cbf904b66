package handlers

import (
	"net/http"

	"restaurant-orders-api/config"
	"restaurant-orders-api/models"
	"restaurant-orders-api/sanitize"

	"github.com/gin-gonic/gin"
)

type CategoryRequest struct {
	Slug  string `json:"slug" binding:"required"`
	Title string `json:"title" binding:"required"`
}

// ListCategories returns categories with search and pagination
func ListCategories(c *gin.Context) {
	query := config.DB.Model(&models.Category{})

	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	page, size := pageParams(c)
	var categories []models.Category
	query.Order("title asc").Offset((page - 1) * size).Limit(size).Find(&categories)

	c.JSON(http.StatusOK, gin.H{
		"count":      total,
		"page":       page,
		"page_size":  size,
		"categories": categories,
	})
}

// GetCategory returns a single category
func GetCategory(c *gin.Context) {
	var category models.Category
	if err := config.DB.First(&category, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// CreateCategory adds a category (manager only)
func CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sanitize.CleanAll(&req.Slug, &req.Title)

	var existing models.Category
	if result := config.DB.Where("title = ?", req.Title).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Category title already exists"})
		return
	}

	category := models.Category{Slug: req.Slug, Title: req.Title}
	if err := config.DB.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory updates slug/title (manager only)
func UpdateCategory(c *gin.Context) {
	var category models.Category
	if err := config.DB.First(&category, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sanitize.CleanAll(&req.Slug, &req.Title)

	if err := config.DB.Model(&category).Updates(map[string]interface{}{
		"slug":  req.Slug,
		"title": req.Title,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category unless menu items still reference it
func DeleteCategory(c *gin.Context) {
	var category models.Category
	if err := config.DB.First(&category, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var refs int64
	config.DB.Model(&models.MenuItem{}).Where("category_id = ?", category.ID).Count(&refs)
	if refs > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category has menu items and cannot be deleted"})
		return
	}

	if err := config.DB.Delete(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
