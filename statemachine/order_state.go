package statemachine

import (
	"errors"

	"restaurant-orders-api/access"
	"restaurant-orders-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor access.Role
}

// validTransitions is the authoritative state machine definition.
// Kitchen progress belongs to managers, the delivery leg to the crew,
// and cancellation stops at the kitchen door.
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusPreparing, Actor: access.RoleManager},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: access.RoleManager},
	// Crew assignment on a READY order advances it; the crew can also
	// pick it up through the delivery endpoint.
	{From: models.StatusReady, To: models.StatusInDelivery, Actor: access.RoleManager},
	{From: models.StatusReady, To: models.StatusInDelivery, Actor: access.RoleDeliveryCrew},
	{From: models.StatusInDelivery, To: models.StatusDelivered, Actor: access.RoleDeliveryCrew},
	// Cancellation: owner may back out of a fresh order, managers any
	// order that has not left the building.
	{From: models.StatusPending, To: models.StatusCancelled, Actor: access.RoleCustomer},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: access.RoleManager},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: access.RoleManager},
	{From: models.StatusReady, To: models.StatusCancelled, Actor: access.RoleManager},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor access.Role
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanBeCancelled reports whether an order in the given state may still be
// cancelled: anything not yet out for delivery and not already terminal.
func CanBeCancelled(status models.OrderStatus) bool {
	switch status {
	case models.StatusPending, models.StatusPreparing, models.StatusReady:
		return true
	}
	return false
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor access.Role) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for actor '" + string(actor) + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
