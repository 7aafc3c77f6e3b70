package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-jwt/jwt/v5/request"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-gradebook/internal/httpjson"
	"github.com/mind-engage/mindengage-gradebook/internal/logger"
	"github.com/mind-engage/mindengage-gradebook/internal/rbac"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
	"github.com/mind-engage/mindengage-gradebook/internal/validation"
)

const tokenTTL = 8 * time.Hour

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // admin|teacher|assistant|student
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-gradebook",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
}

// Parse accepts only HS256 tokens signed with our key.
func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" || c.Role == "" {
		return nil, errors.New("invalid token claims")
	}
	return c, nil
}

// LoginOptions says which credentials LoginHandler accepts.
type LoginOptions struct {
	AdminUser     string
	AdminPassHash string // bcrypt
	// DevLogins lets username==password sign in as teacher, assistant or
	// student. Offline mode only.
	DevLogins bool
}

type loginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=teacher assistant student"`
}

// POST /auth/login  { "username": "...", "password": "...", "role": "teacher|assistant|student" }
func LoginHandler(a *AuthService, opts LoginOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(log, w, srvcerror.InvalidInput("bad json").SetDebug(err))
			return
		}
		if err := validation.Struct(req); err != nil {
			httpjson.HandleError(log, w, err)
			return
		}

		var role string
		switch {
		case opts.AdminUser != "" && req.Username == opts.AdminUser:
			if bcrypt.CompareHashAndPassword([]byte(opts.AdminPassHash), []byte(req.Password)) == nil {
				role = "admin"
			}
		case opts.DevLogins && req.Role != "" && req.Username == req.Password:
			role = req.Role
		}
		if role == "" {
			log.Info("login rejected", "username", req.Username)
			httpjson.WriteErrorJson(w, "invalid credentials", http.StatusUnauthorized, srvcerror.ErrCodeUnauthorized)
			return
		}

		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			httpjson.HandleError(log, w, fmt.Errorf("issue token: %w", err))
			return
		}
		log.Info("login", "username", req.Username, "role", role)
		httpjson.WriteSuccessJson(w, map[string]string{"access_token": tok, "role": role})
	}
}

// JWTMiddleware rejects requests without a valid bearer token and puts the
// token's subject and role on the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := request.BearerExtractor{}.ExtractToken(r)
			if err != nil {
				httpjson.WriteErrorJson(w, "missing bearer token", http.StatusUnauthorized, srvcerror.ErrCodeUnauthorized)
				return
			}
			claims, err := a.Parse(strings.TrimSpace(raw))
			if err != nil {
				logger.FromContext(r.Context()).Debug("bad token", "error", err)
				httpjson.WriteErrorJson(w, "bad token", http.StatusUnauthorized, srvcerror.ErrCodeUnauthorized)
				return
			}
			ctx := rbac.WithSubject(r.Context(), claims.Sub)
			ctx = rbac.WithRole(ctx, claims.Role)
			ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With("subject", claims.Sub, "role", claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
