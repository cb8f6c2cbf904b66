package access

import (
	"restaurant-orders-api/models"
)

// Role classifies a caller for permission checks. It is derived once per
// request from the stored group memberships and staff flag, then passed
// explicitly into handlers and workflow operations.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleDeliveryCrew Role = "delivery_crew"
	RoleManager      Role = "manager"
)

// Derive computes the caller's role. Staff users count as managers.
func Derive(u *models.User) Role {
	if u.IsStaff {
		return RoleManager
	}
	for _, g := range u.Groups {
		if g.Name == models.GroupManager {
			return RoleManager
		}
	}
	for _, g := range u.Groups {
		if g.Name == models.GroupDeliveryCrew {
			return RoleDeliveryCrew
		}
	}
	return RoleCustomer
}

// CanManageCatalog gates category and menu-item writes.
func (r Role) CanManageCatalog() bool {
	return r == RoleManager
}

// CanManageOrders gates the management order endpoint (status + crew).
func (r Role) CanManageOrders() bool {
	return r == RoleManager
}

// CanUpdateDeliveryStatus gates the delivery-facing status endpoint.
func (r Role) CanUpdateDeliveryStatus() bool {
	return r == RoleDeliveryCrew
}

// CanManageGroups gates role-membership management.
func (r Role) CanManageGroups() bool {
	return r == RoleManager
}

// CanDeleteOrder allows the owning user or a manager to delete an order.
func CanDeleteOrder(r Role, callerID, ownerID uint) bool {
	return r == RoleManager || callerID == ownerID
}

// CanViewOrder: owners always see their orders; managers see everything;
// crew see orders assigned to them or not yet assigned.
func CanViewOrder(r Role, callerID uint, o *models.Order) bool {
	if o.UserID == callerID || r == RoleManager {
		return true
	}
	if r == RoleDeliveryCrew {
		return o.DeliveryCrewID == nil || *o.DeliveryCrewID == callerID
	}
	return false
}
