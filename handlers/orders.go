package handlers

import (
	"net/http"
	"strconv"

	"restaurant-orders-api/access"
	"restaurant-orders-api/middleware"
	"restaurant-orders-api/models"
	"restaurant-orders-api/sanitize"
	"restaurant-orders-api/workflow"

	"github.com/gin-gonic/gin"
)

// CreateOrder materializes the caller's cart into a new order
func CreateOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middleware.RecordOrderOperation("create", ok)
	}()
	userID := middleware.GetUserID(c)

	order, err := orders.CreateFromCart(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// ListOrders returns the orders visible to the caller
func ListOrders(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middleware.RecordOrderOperation("list", ok)
	}()
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	page, size := pageParams(c)
	filter := workflow.ListFilter{
		Status:   c.Query("status"),
		Date:     c.Query("date"),
		Page:     page,
		PageSize: size,
	}

	list, total, err := orders.ListVisible(userID, role, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     total,
		"page":      page,
		"page_size": size,
		"orders":    list,
	})
}

// GetOrder returns a single order with items and history
func GetOrder(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := orders.Get(uint(orderID), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder removes an order (owner or manager)
func DeleteOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middleware.RecordOrderOperation("delete", ok)
	}()
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	if err := orders.Delete(uint(orderID), userID, role); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

type ManagerUpdateOrderRequest struct {
	Status          models.OrderStatus `json:"status"`
	DeliveryCrewIDs []uint             `json:"delivery_crew_ids"`
	Note            string             `json:"note"`
}

// ManagerUpdateOrder lets a manager set status and/or assign delivery crew
func ManagerUpdateOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middleware.RecordOrderOperation("manage", ok)
	}()
	actorID := middleware.GetUserID(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req ManagerUpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" && len(req.DeliveryCrewIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update: provide status or delivery_crew_ids"})
		return
	}
	req.Note = sanitize.Clean(req.Note)

	order, err := orders.ManagerUpdate(uint(orderID), req.DeliveryCrewIDs, req.Status, actorID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type CancelOrderRequest struct {
	Note string `json:"note"`
}

// CancelOrder cancels an order within the caller's allowances: owners may
// back out of a PENDING order, managers of anything still in the kitchen.
func CancelOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middleware.RecordOrderOperation("cancel", ok)
	}()
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	req.Note = sanitize.Clean(req.Note)
	if req.Note == "" {
		req.Note = "Order cancelled"
	}

	// Visibility first: strangers get a not-found answer, not a hint.
	order, err := orders.Get(uint(orderID), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := orders.UpdateStatus(order.ID, models.StatusCancelled, role, userID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": updated})
}

type DeliveryStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// DeliveryUpdateStatus handles the delivery-facing transitions: picking up
// a READY order (which also claims it) and marking it DELIVERED.
func DeliveryUpdateStatus(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middleware.RecordOrderOperation("delivery_status", ok)
	}()
	crewID := middleware.GetUserID(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req DeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Note = sanitize.Clean(req.Note)

	order, err := orders.Get(uint(orderID), crewID, access.RoleDeliveryCrew)
	if err != nil {
		respondError(c, err)
		return
	}

	if order.DeliveryCrewID != nil && *order.DeliveryCrewID != crewID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not assigned to this order"})
		return
	}

	// Picking up an unclaimed READY order claims it for the caller and
	// advances it in one step.
	if req.Status == models.StatusInDelivery && order.Status == models.StatusReady && order.DeliveryCrewID == nil {
		updated, err := orders.AssignCrew(order.ID, []uint{crewID}, crewID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": updated})
		return
	}

	updated, err := orders.UpdateStatus(order.ID, req.Status, access.RoleDeliveryCrew, crewID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": updated})
}

// DeliveryOrders is the crew worklist: orders assigned to the caller plus
// unassigned ones
func DeliveryOrders(c *gin.Context) {
	crewID := middleware.GetUserID(c)

	page, size := pageParams(c)
	filter := workflow.ListFilter{
		Status:   c.Query("status"),
		Date:     c.Query("date"),
		Page:     page,
		PageSize: size,
	}

	list, total, err := orders.ListVisible(crewID, access.RoleDeliveryCrew, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     total,
		"page":      page,
		"page_size": size,
		"orders":    list,
	})
}
