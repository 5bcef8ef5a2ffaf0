package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
)

// RoleAdmin may act on orders of every store.
const RoleAdmin = string(enums.StaffRoleAdmin)

// Actor is the authenticated staff member issuing a request.
type Actor struct {
	UserID  string
	StoreID uuid.UUID
	Role    string
}

func (a Actor) canAccess(storeID uuid.UUID) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.StoreID != uuid.Nil && a.StoreID == storeID
}

// TransitionInput requests a staff-driven status change.
type TransitionInput struct {
	Actor   Actor
	OrderID int64
	Target  enums.OrderStatus
}

// NotifyInput requests a re-send of the fulfillment email for status.
type NotifyInput struct {
	Actor   Actor
	OrderID int64
	Status  enums.OrderStatus
}
