package workflow

import (
	"errors"
	"fmt"
	"time"

	"restaurant-orders-api/access"
	"restaurant-orders-api/events"
	"restaurant-orders-api/models"
	"restaurant-orders-api/statemachine"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderService converts carts into immutable orders and drives the order
// status lifecycle. Events is optional; a nil publisher is a no-op.
type OrderService struct {
	DB     *gorm.DB
	Events *events.Publisher
}

func NewOrderService(db *gorm.DB, pub *events.Publisher) *OrderService {
	return &OrderService{DB: db, Events: pub}
}

// CreateFromCart materializes the caller's cart into an order. The cart
// read, order insert, item inserts and cart delete run in one transaction
// with the cart rows locked, so two concurrent conversions for the same
// user cannot both materialize the same lines.
func (s *OrderService) CreateFromCart(userID uint) (*models.Order, error) {
	var order models.Order
	var items []models.OrderItem
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// sqlite serializes writers inside the transaction; other
		// dialects need the explicit row lock on the cart.
		q := tx.Where("user_id = ?", userID).Order("id asc")
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var lines []models.CartLine
		if err := q.Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return validationf("cart is empty")
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Price)
		}

		order = models.Order{
			UserID: userID,
			Status: models.StatusPending,
			Total:  total,
			Date:   time.Now().Truncate(24 * time.Hour),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		items = make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: l.MenuItemID,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				Price:      l.Price,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: userID,
			Note:      "Order placed",
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	s.Events.PublishOrderEvent(order.ID, "created", string(models.StatusPending))

	// Reload with menu items attached; if the reload fails, serve exactly
	// what was committed.
	reloaded := order
	if err := s.DB.Preload("Items.MenuItem").First(&reloaded, order.ID).Error; err != nil {
		order.Items = items
		return &order, nil
	}
	return &reloaded, nil
}

// Get returns an order the caller is allowed to see. Callers without
// visibility get a not-found answer, never the order's data.
func (s *OrderService) Get(orderID, callerID uint, role access.Role) (*models.Order, error) {
	var order models.Order
	err := s.DB.Preload("Items.MenuItem").Preload("StatusHistory").Preload("DeliveryCrew").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order not found")
		}
		return nil, err
	}
	if !access.CanViewOrder(role, callerID, &order) {
		return nil, notFound("order not found")
	}
	return &order, nil
}

// ListFilter carries the optional list parameters.
type ListFilter struct {
	Status   string
	Date     string // YYYY-MM-DD
	Page     int
	PageSize int
}

// ListVisible returns the orders the caller may see: managers all of them,
// delivery crew their assignments plus unassigned orders, everyone else
// their own.
func (s *OrderService) ListVisible(callerID uint, role access.Role, f ListFilter) ([]models.Order, int64, error) {
	query := s.DB.Model(&models.Order{})

	switch role {
	case access.RoleManager:
		// no scoping
	case access.RoleDeliveryCrew:
		query = query.Where("delivery_crew_id = ? OR delivery_crew_id IS NULL", callerID)
	default:
		query = query.Where("user_id = ?", callerID)
	}

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Date != "" {
		if day, err := time.Parse("2006-01-02", f.Date); err == nil {
			query = query.Where("date >= ? AND date < ?", day, day.Add(24*time.Hour))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 || size > 100 {
		size = 10
	}

	var orders []models.Order
	err := query.Preload("Items.MenuItem").
		Order("date desc, id desc").
		Offset((page - 1) * size).
		Limit(size).
		Find(&orders).Error
	return orders, total, err
}

// UpdateStatus validates the target status against the enum and the
// transition table for the acting role, then mutates the order and appends
// a history row in the same transaction.
func (s *OrderService) UpdateStatus(orderID uint, newStatus models.OrderStatus, actor access.Role, actorID uint, note string) (*models.Order, error) {
	if !models.ValidStatus(newStatus) {
		return nil, validationf("invalid status %q", newStatus)
	}

	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order not found")
		}
		return nil, err
	}

	if err := statemachine.CanTransition(order.Status, newStatus, actor); err != nil {
		return nil, &TransitionError{Err: err}
	}

	prevStatus := order.Status
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Update("status", newStatus).Error; err != nil {
			return err
		}
		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prevStatus,
			ToStatus:   newStatus,
			ChangedBy:  actorID,
			Note:       note,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	s.Events.PublishOrderEvent(order.ID, "status_changed", string(newStatus))

	order.Status = newStatus
	return &order, nil
}

// AssignCrew validates that every id names an existing delivery crew member
// and assigns the first one (single assignee). Assigning a READY order
// advances it to IN_DELIVERY.
func (s *OrderService) AssignCrew(orderID uint, crewUserIDs []uint, actorID uint) (*models.Order, error) {
	if len(crewUserIDs) == 0 {
		return nil, validationf("at least one delivery crew user id is required")
	}

	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order not found")
		}
		return nil, err
	}

	assignee, err := s.validateCrew(crewUserIDs)
	if err != nil {
		return nil, err
	}

	prevStatus := order.Status
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"delivery_crew_id": assignee}
		if prevStatus == models.StatusReady {
			updates["status"] = models.StatusInDelivery
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		if prevStatus == models.StatusReady {
			history := models.OrderStatusHistory{
				OrderID:    order.ID,
				FromStatus: prevStatus,
				ToStatus:   models.StatusInDelivery,
				ChangedBy:  actorID,
				Note:       fmt.Sprintf("Assigned to delivery crew user %d", assignee),
			}
			return tx.Create(&history).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.DeliveryCrewID = &assignee
	if prevStatus == models.StatusReady {
		order.Status = models.StatusInDelivery
		s.Events.PublishOrderEvent(order.ID, "status_changed", string(models.StatusInDelivery))
	}

	reloaded := order
	if err := s.DB.Preload("DeliveryCrew").First(&reloaded, order.ID).Error; err != nil {
		return &order, nil
	}
	return &reloaded, nil
}

// ManagerUpdate applies a crew assignment and/or a status change as a single
// atomic operation, so a rejected status never leaves a half-applied
// assignment behind.
func (s *OrderService) ManagerUpdate(orderID uint, crewUserIDs []uint, newStatus models.OrderStatus, actorID uint, note string) (*models.Order, error) {
	if len(crewUserIDs) == 0 && newStatus == "" {
		return nil, validationf("nothing to update")
	}
	if newStatus != "" && !models.ValidStatus(newStatus) {
		return nil, validationf("invalid status %q", newStatus)
	}

	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order not found")
		}
		return nil, err
	}

	var assignee uint
	if len(crewUserIDs) > 0 {
		a, err := s.validateCrew(crewUserIDs)
		if err != nil {
			return nil, err
		}
		assignee = a
	}

	// Work out the full status trail before touching the database, so a
	// rejected transition writes nothing at all.
	type statusChange struct {
		from, to models.OrderStatus
		note     string
	}
	prevStatus := order.Status
	current := prevStatus
	var trail []statusChange

	if len(crewUserIDs) > 0 && current == models.StatusReady {
		trail = append(trail, statusChange{current, models.StatusInDelivery,
			fmt.Sprintf("Assigned to delivery crew user %d", assignee)})
		current = models.StatusInDelivery
	}
	if newStatus != "" {
		if err := statemachine.CanTransition(current, newStatus, access.RoleManager); err != nil {
			return nil, &TransitionError{Err: err}
		}
		trail = append(trail, statusChange{current, newStatus, note})
		current = newStatus
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if len(crewUserIDs) > 0 {
			updates["delivery_crew_id"] = assignee
		}
		if current != prevStatus {
			updates["status"] = current
		}
		if len(updates) > 0 {
			if err := tx.Model(&order).Updates(updates).Error; err != nil {
				return err
			}
		}
		for _, ch := range trail {
			history := models.OrderStatusHistory{
				OrderID:    order.ID,
				FromStatus: ch.from,
				ToStatus:   ch.to,
				ChangedBy:  actorID,
				Note:       ch.note,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(crewUserIDs) > 0 {
		order.DeliveryCrewID = &assignee
	}
	order.Status = current
	for _, ch := range trail {
		s.Events.PublishOrderEvent(order.ID, "status_changed", string(ch.to))
	}

	reloaded := order
	if err := s.DB.Preload("DeliveryCrew").First(&reloaded, order.ID).Error; err != nil {
		return &order, nil
	}
	return &reloaded, nil
}

// validateCrew checks that every id names an existing delivery crew member
// and returns the assignee (the first id).
func (s *OrderService) validateCrew(crewUserIDs []uint) (uint, error) {
	for _, id := range crewUserIDs {
		var user models.User
		if err := s.DB.Preload("Groups").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, validationf("user %d does not exist", id)
			}
			return 0, err
		}
		if !inGroup(&user, models.GroupDeliveryCrew) {
			return 0, validationf("user %d is not part of the delivery crew", id)
		}
	}
	return crewUserIDs[0], nil
}

// Delete removes an order. Only the owning user or a manager may do it.
func (s *OrderService) Delete(orderID, callerID uint, role access.Role) error {
	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("order not found")
		}
		return err
	}

	if !access.CanDeleteOrder(role, callerID, order.UserID) {
		return &PermissionError{Msg: "only the order's owner or a manager can delete it"}
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

func inGroup(u *models.User, name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}
