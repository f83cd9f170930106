package middleware

import (
	"context"
	"net/http"
	"strings"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/services"
	"task-manager/utils"

	"github.com/google/uuid"
)

type contextKey int

const (
	callerKey contextKey = iota
	requestIDKey
)

const RequestIDHeader = "X-Request-ID"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom returns the caller stored by JWTAuthMiddleware.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// JWTAuthMiddleware requires a valid "Bearer <token>" header whose user still exists.
func JWTAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				utils.WriteError(w, r, &services.AppError{Kind: services.ErrUnauthenticated, Msg: "Not authorized, no token"})
				return
			}

			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found {
				logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
				utils.WriteError(w, r, &services.AppError{Kind: services.ErrUnauthenticated, Msg: "Not authorized, no token"})
				return
			}

			user, err := auth.Authenticate(r.Context(), strings.TrimSpace(tokenStr))
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
				utils.WriteError(w, r, err)
				return
			}

			logging.Logger.Debugf("Event ID: JWT_AUTH_SUCCESS, Description: User %s authenticated for %s %s", user.ID.Hex(), r.Method, r.URL.Path)
			ctx := WithCaller(r.Context(), models.Caller{ID: user.ID, Role: user.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after JWTAuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFrom(r.Context())
		if !ok || !caller.IsAdmin() {
			logging.Logger.Warnf("Event ID: ADMIN_ONLY_DENIED, Description: Non-admin access to %s %s", r.Method, r.URL.Path)
			utils.WriteError(w, r, &services.AppError{Kind: services.ErrForbidden, Msg: "Access denied, admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
