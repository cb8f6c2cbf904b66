package handlers

import (
	"net/http"
	"strconv"

	"restaurant-orders-api/config"
	"restaurant-orders-api/models"

	"github.com/gin-gonic/gin"
)

type GroupMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func groupByName(name string) (*models.Group, error) {
	var group models.Group
	if err := config.DB.Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// listGroupUsers returns the members of a role group
func listGroupUsers(c *gin.Context, groupName string) {
	group, err := groupByName(groupName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var users []models.User
	config.DB.Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Where("user_groups.group_id = ?", group.ID).
		Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// addGroupUser adds a user to a role group
func addGroupUser(c *gin.Context, groupName string) {
	group, err := groupByName(groupName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var req GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := config.DB.Model(&user).Association("Groups").Append(group); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add user to group"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User added to " + groupName})
}

// removeGroupUser removes a user from a role group
func removeGroupUser(c *gin.Context, groupName string) {
	group, err := groupByName(groupName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := config.DB.Model(&user).Association("Groups").Delete(group); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove user from group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed from " + groupName})
}

// Manager group membership

func ListManagers(c *gin.Context)  { listGroupUsers(c, models.GroupManager) }
func AddManager(c *gin.Context)    { addGroupUser(c, models.GroupManager) }
func RemoveManager(c *gin.Context) { removeGroupUser(c, models.GroupManager) }

// Delivery crew membership

func ListDeliveryCrew(c *gin.Context)   { listGroupUsers(c, models.GroupDeliveryCrew) }
func AddDeliveryCrew(c *gin.Context)    { addGroupUser(c, models.GroupDeliveryCrew) }
func RemoveDeliveryCrew(c *gin.Context) { removeGroupUser(c, models.GroupDeliveryCrew) }
