package routes

import (
	"restaurant-orders-api/access"
	"restaurant-orders-api/handlers"
	"restaurant-orders-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/register", handlers.Register)
		public.POST("/token", handlers.Token)

		// Catalog reads are open
		public.GET("/categories", handlers.ListCategories)
		public.GET("/categories/:id", handlers.GetCategory)
		public.GET("/menu-items", handlers.ListMenuItems)
		public.GET("/menu-items/:id", handlers.GetMenuItem)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/users/me", handlers.Me)

		// Cart
		auth.GET("/cart", handlers.GetCart)
		auth.POST("/cart/add", handlers.AddToCart)
		auth.DELETE("/cart/clear", handlers.ClearCart)
		auth.GET("/cart/:id", handlers.GetCartLine)
		auth.PUT("/cart/:id", handlers.UpdateCartLine)
		auth.DELETE("/cart/:id", handlers.RemoveCartLine)

		// Orders
		auth.POST("/orders", handlers.CreateOrder)
		auth.GET("/orders", handlers.ListOrders)
		auth.GET("/orders/:id", handlers.GetOrder)
		auth.DELETE("/orders/:id", handlers.DeleteOrder)
		auth.POST("/orders/:id/cancel", handlers.CancelOrder)
	}

	// ── Catalog management ─────────────────────────────────────────
	catalogAdmin := r.Group("/api")
	catalogAdmin.Use(middleware.AuthRequired(), middleware.PermissionRequired(access.Role.CanManageCatalog))
	{
		catalogAdmin.POST("/categories", handlers.CreateCategory)
		catalogAdmin.PUT("/categories/:id", handlers.UpdateCategory)
		catalogAdmin.DELETE("/categories/:id", handlers.DeleteCategory)

		catalogAdmin.POST("/menu-items", handlers.CreateMenuItem)
		catalogAdmin.PUT("/menu-items/:id", handlers.UpdateMenuItem)
		catalogAdmin.DELETE("/menu-items/:id", handlers.DeleteMenuItem)
	}

	// ── Order management ───────────────────────────────────────────
	orderAdmin := r.Group("/api")
	orderAdmin.Use(middleware.AuthRequired(), middleware.PermissionRequired(access.Role.CanManageOrders))
	{
		orderAdmin.PATCH("/orders/:id/update", handlers.ManagerUpdateOrder)
	}

	// ── Role membership management ─────────────────────────────────
	groupAdmin := r.Group("/api")
	groupAdmin.Use(middleware.AuthRequired(), middleware.PermissionRequired(access.Role.CanManageGroups))
	{
		groupAdmin.GET("/groups/manager/users", handlers.ListManagers)
		groupAdmin.POST("/groups/manager/users", handlers.AddManager)
		groupAdmin.DELETE("/groups/manager/users/:userId", handlers.RemoveManager)
		groupAdmin.GET("/groups/delivery-crew/users", handlers.ListDeliveryCrew)
		groupAdmin.POST("/groups/delivery-crew/users", handlers.AddDeliveryCrew)
		groupAdmin.DELETE("/groups/delivery-crew/users/:userId", handlers.RemoveDeliveryCrew)
	}

	// ── Delivery crew routes ───────────────────────────────────────
	delivery := r.Group("/api")
	delivery.Use(middleware.AuthRequired(), middleware.PermissionRequired(access.Role.CanUpdateDeliveryStatus))
	{
		delivery.GET("/orders/delivery", handlers.DeliveryOrders)
		delivery.PATCH("/orders/:id/status", handlers.DeliveryUpdateStatus)
	}
}
