package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindengage-gradebook/internal/rbac"
)

func TestCheckerDefaults(t *testing.T) {
	c := rbac.NewChecker(nil)

	assert.True(t, c.Has("teacher", rbac.PermConfigEdit))
	assert.True(t, c.Has("teacher", rbac.PermExport))
	assert.True(t, c.Has("assistant", rbac.PermEntriesWrite))
	assert.False(t, c.Has("assistant", rbac.PermConfigEdit))
	assert.False(t, c.Has("student", rbac.PermGradebook))
	assert.True(t, c.Has("student", rbac.PermGradeOwn))
	assert.True(t, c.Has("admin", "anything:at-all"))
	assert.False(t, c.Has("visitor", rbac.PermConfigView))

	assert.True(t, c.Any("student", rbac.PermGradebook, rbac.PermGradeOwn))
	assert.False(t, c.All("student", rbac.PermGradebook, rbac.PermGradeOwn))
	assert.True(t, c.All("teacher", rbac.PermItemsEdit, rbac.PermRosterEdit))
}

func TestCheckerWildcardIsPrefixOnly(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{"r": {"entries:*"}})
	assert.True(t, c.Has("r", "entries:write"))
	assert.False(t, c.Has("r", "gradebook:view"))
}

func serve(h http.Handler, role, sub string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.Background()
	if role != "" {
		ctx = rbac.WithRole(ctx, role)
	}
	if sub != "" {
		ctx = rbac.WithSubject(ctx, sub)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec.Code
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestRequire(t *testing.T) {
	h := rbac.Require(rbac.PermConfigEdit)(ok)
	assert.Equal(t, http.StatusNoContent, serve(h, "teacher", "t1"))
	assert.Equal(t, http.StatusForbidden, serve(h, "student", "s1"))
	assert.Equal(t, http.StatusForbidden, serve(h, "", ""))

	either := rbac.RequireAny(rbac.PermGradebook, rbac.PermExport)(ok)
	assert.Equal(t, http.StatusNoContent, serve(either, "assistant", "a1"))
	assert.Equal(t, http.StatusForbidden, serve(either, "student", "s1"))
}

func TestRequireOwnerOr(t *testing.T) {
	isOwner := func(r *http.Request) bool { return rbac.SubjectFromContext(r.Context()) == "s1" }
	h := rbac.RequireOwnerOr(rbac.PermGradebook, isOwner)(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "student", "s1"))
	assert.Equal(t, http.StatusForbidden, serve(h, "student", "s2"))
	assert.Equal(t, http.StatusNoContent, serve(h, "teacher", "t1"))
}
