package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-orders-api/config"
	"restaurant-orders-api/handlers"
	"restaurant-orders-api/middleware"
	"restaurant-orders-api/models"
	"restaurant-orders-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Category{},
		&models.MenuItem{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	))
	for _, name := range []string{models.GroupManager, models.GroupDeliveryCrew} {
		require.NoError(t, db.Create(&models.Group{Name: name}).Error)
	}

	config.DB = db
	config.JWTSecret = []byte("test_secret")
	handlers.Init(db, nil)

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

// newUser creates an account directly in the database and returns a valid
// bearer token for it.
func newUser(t *testing.T, username string, groups ...string) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	require.NoError(t, config.DB.Create(&user).Error)

	for _, name := range groups {
		var g models.Group
		require.NoError(t, config.DB.Where("name = ?", name).First(&g).Error)
		require.NoError(t, config.DB.Model(&user).Association("Groups").Append(&g))
	}

	token, err := middleware.GenerateToken(&user)
	require.NoError(t, err)
	return &user, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func seedCatalog(t *testing.T, title, price string) *models.MenuItem {
	t.Helper()

	var category models.Category
	if err := config.DB.Where("title = ?", "Mains").First(&category).Error; err != nil {
		category = models.Category{Slug: "mains", Title: "Mains"}
		require.NoError(t, config.DB.Create(&category).Error)
	}
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	item := models.MenuItem{Title: title, Price: p, CategoryID: category.ID, Available: true}
	require.NoError(t, config.DB.Create(&item).Error)
	return &item
}

func TestRegisterAndToken(t *testing.T) {
	r := setupServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Same username again is a conflict.
	w = doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/token", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])

	w = doJSON(t, r, http.MethodPost, "/api/token", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartRequiresAuth(t *testing.T) {
	r := setupServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogWritesAreManagerOnly(t *testing.T) {
	r := setupServer(t)
	_, customerToken := newUser(t, "alice")
	_, managerToken := newUser(t, "mgr", models.GroupManager)

	payload := gin.H{"slug": "desserts", "title": "Desserts"}

	w := doJSON(t, r, http.MethodPost, "/api/categories", customerToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/categories", managerToken, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Duplicate title is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/categories", managerToken, payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMenuItemMinimumPrice(t *testing.T) {
	r := setupServer(t)
	_, managerToken := newUser(t, "mgr", models.GroupManager)

	w := doJSON(t, r, http.MethodPost, "/api/categories", managerToken, gin.H{"slug": "mains", "title": "Mains"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	categoryID := body["category"].(map[string]any)["id"].(float64)

	w = doJSON(t, r, http.MethodPost, "/api/menu-items", managerToken, gin.H{
		"title":       "Cheap Bread",
		"price":       "1.50",
		"category_id": categoryID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Price should not be less than 2.00")

	w = doJSON(t, r, http.MethodPost, "/api/menu-items", managerToken, gin.H{
		"title":       "Greek Salad",
		"price":       "5.00",
		"category_id": categoryID,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestDeleteCategoryBlockedWhileReferenced(t *testing.T) {
	r := setupServer(t)
	_, managerToken := newUser(t, "mgr", models.GroupManager)
	item := seedCatalog(t, "Greek Salad", "5.00")

	path := fmt.Sprintf("/api/categories/%d", item.CategoryID)
	w := doJSON(t, r, http.MethodDelete, path, managerToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Category has menu items and cannot be deleted")

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/menu-items/%d", item.ID), managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartToOrderFlow(t *testing.T) {
	r := setupServer(t)
	_, token := newUser(t, "alice")
	item := seedCatalog(t, "Greek Salad", "5.50")

	w := doJSON(t, r, http.MethodPost, "/api/cart/add", token, gin.H{
		"menu_item_id": item.ID,
		"quantity":     2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])

	total, err := decimal.NewFromString(fmt.Sprint(body["total"]))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("11.00")), "total %s", total)

	w = doJSON(t, r, http.MethodPost, "/api/orders", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body = decodeBody(t, w)
	order := body["order"].(map[string]any)
	assert.Equal(t, string(models.StatusPending), order["status"])

	// The cart is consumed by the conversion.
	w = doJSON(t, r, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 0, body["count"])

	// Placing again with an empty cart fails.
	w = doJSON(t, r, http.MethodPost, "/api/orders", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	r := setupServer(t)
	_, customerToken := newUser(t, "alice")
	_, managerToken := newUser(t, "mgr", models.GroupManager)
	crew, crewToken := newUser(t, "rider", models.GroupDeliveryCrew)
	item := seedCatalog(t, "Greek Salad", "5.50")

	w := doJSON(t, r, http.MethodPost, "/api/cart/add", customerToken, gin.H{
		"menu_item_id": item.ID,
		"quantity":     1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/orders", customerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeBody(t, w)["order"].(map[string]any)["id"].(float64)

	managePath := fmt.Sprintf("/api/orders/%.0f/update", orderID)
	statusPath := fmt.Sprintf("/api/orders/%.0f/status", orderID)

	// The customer cannot reach the management endpoint.
	w = doJSON(t, r, http.MethodPatch, managePath, customerToken, gin.H{"status": "PREPARING"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Skipping ahead is a transition error.
	w = doJSON(t, r, http.MethodPatch, managePath, managerToken, gin.H{"status": "DELIVERED"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for _, status := range []string{"PREPARING", "READY"} {
		w = doJSON(t, r, http.MethodPatch, managePath, managerToken, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Picking up the READY order claims it for the caller.
	w = doJSON(t, r, http.MethodPatch, statusPath, crewToken, gin.H{"status": "IN_DELIVERY"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decodeBody(t, w)["order"].(map[string]any)
	assert.Equal(t, string(models.StatusInDelivery), order["status"])
	assert.EqualValues(t, crew.ID, order["delivery_crew_id"])

	// A claimed order is invisible to other crew members; the denial is a
	// not-found answer, never a hint that the order exists.
	_, otherCrewToken := newUser(t, "rider2", models.GroupDeliveryCrew)
	w = doJSON(t, r, http.MethodPatch, statusPath, otherCrewToken, gin.H{"status": "DELIVERED"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPatch, statusPath, crewToken, gin.H{"status": "DELIVERED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The owner sees the final state with the full audit trail.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%.0f", orderID), customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order = decodeBody(t, w)["order"].(map[string]any)
	assert.Equal(t, string(models.StatusDelivered), order["status"])
	history := order["status_history"].([]any)
	assert.Len(t, history, 5)
}

func TestPermissionGatesPerRole(t *testing.T) {
	r := setupServer(t)
	_, customerToken := newUser(t, "alice")
	_, managerToken := newUser(t, "mgr", models.GroupManager)
	_, crewToken := newUser(t, "rider", models.GroupDeliveryCrew)

	// Catalog writes are manager territory.
	w := doJSON(t, r, http.MethodPost, "/api/categories", crewToken, gin.H{"slug": "s", "title": "Sides"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The delivery worklist is crew territory, even for managers.
	w = doJSON(t, r, http.MethodGet, "/api/orders/delivery", managerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/orders/delivery", crewToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Group membership is manager territory.
	w = doJSON(t, r, http.MethodGet, "/api/groups/manager/users", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Order management is manager territory.
	w = doJSON(t, r, http.MethodPatch, "/api/orders/1/update", crewToken, gin.H{"status": "PREPARING"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOwnerCancelsPendingOrder(t *testing.T) {
	r := setupServer(t)
	_, ownerToken := newUser(t, "alice")
	_, strangerToken := newUser(t, "bob")
	_, managerToken := newUser(t, "mgr", models.GroupManager)
	item := seedCatalog(t, "Greek Salad", "5.50")

	place := func(token string) float64 {
		w := doJSON(t, r, http.MethodPost, "/api/cart/add", token, gin.H{
			"menu_item_id": item.ID,
			"quantity":     1,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, r, http.MethodPost, "/api/orders", token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeBody(t, w)["order"].(map[string]any)["id"].(float64)
	}

	orderID := place(ownerToken)
	cancelPath := fmt.Sprintf("/api/orders/%.0f/cancel", orderID)

	// Strangers get a not-found answer.
	w := doJSON(t, r, http.MethodPost, cancelPath, strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, cancelPath, ownerToken, gin.H{"note": "changed my mind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decodeBody(t, w)["order"].(map[string]any)
	assert.Equal(t, string(models.StatusCancelled), order["status"])

	// Once the kitchen has started, only a manager may still cancel.
	secondID := place(ownerToken)
	secondCancel := fmt.Sprintf("/api/orders/%.0f/cancel", secondID)
	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/orders/%.0f/update", secondID), managerToken, gin.H{"status": "PREPARING"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, secondCancel, ownerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, secondCancel, managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestManagerUpdateIsAtomicOverHTTP(t *testing.T) {
	r := setupServer(t)
	_, customerToken := newUser(t, "alice")
	_, managerToken := newUser(t, "mgr", models.GroupManager)
	crew, _ := newUser(t, "rider", models.GroupDeliveryCrew)
	item := seedCatalog(t, "Greek Salad", "5.50")

	w := doJSON(t, r, http.MethodPost, "/api/cart/add", customerToken, gin.H{
		"menu_item_id": item.ID,
		"quantity":     1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/orders", customerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeBody(t, w)["order"].(map[string]any)["id"].(float64)

	// Valid assignment plus an illegal jump must leave the order untouched.
	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/orders/%.0f/update", orderID), managerToken, gin.H{
		"status":            "DELIVERED",
		"delivery_crew_ids": []uint{crew.ID},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%.0f", orderID), managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decodeBody(t, w)["order"].(map[string]any)
	assert.Equal(t, string(models.StatusPending), order["status"])
	assert.Nil(t, order["delivery_crew_id"])
}

func TestGroupMembershipManagement(t *testing.T) {
	r := setupServer(t)
	_, managerToken := newUser(t, "mgr", models.GroupManager)
	rider, _ := newUser(t, "rider")

	w := doJSON(t, r, http.MethodPost, "/api/groups/delivery-crew/users", managerToken, gin.H{
		"user_id": rider.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/groups/delivery-crew/users", managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rider")

	// Membership changes take effect on the next request.
	riderToken, err := middleware.GenerateToken(rider)
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodGet, "/api/orders/delivery", riderToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/groups/delivery-crew/users/%d", rider.ID), managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/orders/delivery", riderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
