package rbac

import (
	"net/http"

	"github.com/mind-engage/mindengage-gradebook/internal/httpjson"
	"github.com/mind-engage/mindengage-gradebook/internal/logger"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
)

var defaultChecker = NewChecker(nil)

func forbid(w http.ResponseWriter, r *http.Request, perms ...string) {
	logger.FromContext(r.Context()).Info("permission denied",
		"subject", SubjectFromContext(r.Context()), "role", RoleFromContext(r.Context()), "need", perms)
	httpjson.WriteErrorJson(w, "forbidden", http.StatusForbidden, srvcerror.ErrCodeForbidden)
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				forbid(w, r, perm)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Any(role, perms...) {
				forbid(w, r, perms...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr lets the request through when isOwner says the caller owns
// the resource, or when the role holds perm.
func RequireOwnerOr(perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if isOwner(r) || (role != "" && defaultChecker.Has(role, perm)) {
				next.ServeHTTP(w, r)
				return
			}
			forbid(w, r, perm)
		})
	}
}
