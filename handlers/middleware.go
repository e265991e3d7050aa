package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"arborist-study-api/models"
	"arborist-study-api/subscriptions"
	"arborist-study-api/utils"
)

type contextKey string

const userContextKey contextKey = "user"

// tokenParser verifies a bearer token and returns its subject
type tokenParser interface {
	ParseToken(tokenString string) (string, error)
}

// identityStore resolves a token subject to a stored user
type identityStore interface {
	GetUserByUsername(username string) (*models.User, string, error)
}

// gateStore is what the subscription gate needs from storage
type gateStore interface {
	identityStore
	GetSubscriptionByUserID(userID int) (*models.Subscription, error)
	MarkSubscriptionExpired(userID int) error
}

// UserFromContext returns the authenticated user placed by RequireUser
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// AuthMiddleware resolves the bearer token to a user for protected endpoints
type AuthMiddleware struct {
	tokens tokenParser
	store  identityStore
}

func (m *AuthMiddleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondWithJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}

		username, err := m.tokens.ParseToken(token)
		if err != nil {
			respondWithJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		user, _, err := m.store.GetUserByUsername(username)
		if err != nil {
			respondWithJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// gateAllowPrefixes lists the routes reachable without an active subscription:
// health, the auth flow, public topic metadata, and the subscription
// management endpoints themselves (a lapsed user must be able to renew).
var gateAllowPrefixes = []string{
	"/api/health",
	"/api/auth/",
	"/api/topics",
	"/api/subscriptions/",
}

// SubscriptionGate enforces payment gating on study content. It fails open:
// any infrastructure error while checking lets the request through rather
// than locking paying users out.
type SubscriptionGate struct {
	tokens tokenParser
	store  gateStore
}

func (g *SubscriptionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || g.allowed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			// Unauthenticated requests fall through to the 401 from RequireUser
			next.ServeHTTP(w, r)
			return
		}

		username, err := g.tokens.ParseToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, _, err := g.store.GetUserByUsername(username)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sub, err := g.store.GetSubscriptionByUserID(user.ID)
		if err != nil {
			utils.LogGate("Subscription check failed for user %d, allowing request: %v", user.ID, err)
			next.ServeHTTP(w, r)
			return
		}

		if sub == nil {
			utils.LogGate("User %d has no subscription, blocking %s", user.ID, r.URL.Path)
			respondWithJSON(w, http.StatusPaymentRequired, map[string]interface{}{
				"detail":               "An active subscription is required to access this content",
				"requiresSubscription": true,
			})
			return
		}

		eval := subscriptions.Evaluate(sub, time.Now().UTC())
		if eval.IsActive {
			next.ServeHTTP(w, r)
			return
		}

		if eval.Lapsed {
			// Persist the observed trial/active -> expired transition
			if err := g.store.MarkSubscriptionExpired(user.ID); err != nil {
				utils.LogGate("Failed to persist expiry for user %d: %v", user.ID, err)
			}
		}

		utils.LogGate("User %d subscription is %s, blocking %s", user.ID, sub.Status, r.URL.Path)
		respondWithJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"detail":              "Your subscription has expired. Please renew to continue studying.",
			"requiresPayment":     true,
			"subscriptionExpired": true,
		})
	})
}

func (g *SubscriptionGate) allowed(path string) bool {
	for _, prefix := range gateAllowPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		utils.LogHTTP("%s %s -> %d (%v)", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
