package domain

import "net/http"

// IsAdmin is true for authenticated principals whose user has the admin role
// or the superuser flag.
func IsAdmin(p Principal) bool {
	return p.IsAuthenticated() && p.User.IsAdmin()
}

// IsSelfOrAdmin is true for admins and for the user identified by targetUserID.
func IsSelfOrAdmin(p Principal, targetUserID string) bool {
	if IsAdmin(p) {
		return true
	}
	return p.IsAuthenticated() && p.User.ID == targetUserID
}

// ReadAllowedElseAdminOnly lets every principal, anonymous included, perform
// safe methods and restricts everything else to admins.
func ReadAllowedElseAdminOnly(p Principal, method string) bool {
	if IsSafeMethod(method) {
		return true
	}
	return IsAdmin(p)
}

// IsSafeMethod reports whether method is read-only.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// RequireAuthenticated returns ErrUnauthenticated for anonymous principals.
func RequireAuthenticated(p Principal) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin distinguishes a missing principal (ErrUnauthenticated) from an
// authenticated principal without the admin role (ErrForbidden).
func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !IsAdmin(p) {
		return ErrForbidden
	}
	return nil
}

func RequireSelfOrAdmin(p Principal, targetUserID string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !IsSelfOrAdmin(p, targetUserID) {
		return ErrForbidden
	}
	return nil
}

func RequireReadOrAdmin(p Principal, method string) error {
	if ReadAllowedElseAdminOnly(p, method) {
		return nil
	}
	return RequireAdmin(p)
}
