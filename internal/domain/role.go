package domain

import "fmt"

// Role is a restaurant role that views or advances orders.
type Role string

const (
	RoleKitchen  Role = "kitchen"
	RoleCashier  Role = "cashier"
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
)

// ParseRole converts a raw value into a known role.
func ParseRole(raw string) (Role, error) {
	switch r := Role(raw); r {
	case RoleKitchen, RoleCashier, RoleCustomer, RoleManager:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

// CanView reports whether an order in status s may be exposed to role r.
func CanView(r Role, s Status) bool {
	switch r {
	case RoleManager:
		return true
	case RoleKitchen:
		return IsKitchenVisible(s)
	case RoleCashier:
		return IsCashierVisible(s)
	case RoleCustomer:
		return IsCustomerVisible(s)
	default:
		return false
	}
}

// CanAdvance reports whether role r may request advancement of an order in s.
// Payment approval (APPROVING -> PAID) is driven by provider confirmation,
// not by a role.
func CanAdvance(r Role, s Status) bool {
	switch r {
	case RoleManager:
		return true
	case RoleKitchen:
		return IsKitchenVisible(s)
	case RoleCashier:
		return IsCashierVisible(s)
	case RoleCustomer:
		return s == StatusPending || s == StatusCheckout
	default:
		return false
	}
}

// CanCancel reports whether role r may cancel orders.
func CanCancel(r Role) bool {
	return r == RoleManager || r == RoleCashier
}
