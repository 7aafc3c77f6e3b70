package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-gradebook/internal/auth/middleware"
	"github.com/mind-engage/mindengage-gradebook/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := auth.NewAuthService("k")
	tok, err := a.IssueJWT("ana", "student")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana", c.Sub)
	assert.Equal(t, "student", c.Role)

	_, err = auth.NewAuthService("other").Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpiredAndNone(t *testing.T) {
	a := auth.NewAuthService("k")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Sub: "ana", Role: "student",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	s, err := expired.SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{Sub: "ana", Role: "admin"})
	s, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.Error(t, err)
}

func login(t *testing.T, h http.Handler, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a := auth.NewAuthService("k")
	h := auth.LoginHandler(a, auth.LoginOptions{AdminUser: "root", AdminPassHash: string(hash), DevLogins: true})

	code, out := login(t, h, `{"username":"root","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "admin", data["role"])
	c, err := a.Parse(data["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "root", c.Sub)

	code, _ = login(t, h, `{"username":"root","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out = login(t, h, `{"username":"ms-t","password":"ms-t","role":"teacher"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "teacher", out["data"].(map[string]any)["role"])

	code, out = login(t, h, `{"username":"x","password":"x","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", out["code"])

	code, _ = login(t, h, `{"username":" ","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoginHandlerWithoutDevLogins(t *testing.T) {
	h := auth.LoginHandler(auth.NewAuthService("k"), auth.LoginOptions{})
	code, _ := login(t, h, `{"username":"ms-t","password":"ms-t","role":"teacher"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestJWTMiddleware(t *testing.T) {
	a := auth.NewAuthService("k")
	var gotSub, gotRole string
	h := auth.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := a.IssueJWT("t1", "teacher")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", gotSub)
	assert.Equal(t, "teacher", gotRole)
}
