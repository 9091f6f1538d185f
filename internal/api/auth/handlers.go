// internal/api/auth/handlers.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/api/apiutil"
	"github.com/campusrec/sportsarena/internal/api/authz"
	appdb "github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/ratelimit"
)

const (
	authQueryTimeout   = 5 * time.Second
	minPasswordLength  = 8
	defaultPhoneRegion = "US"
)

var (
	queries     *appdb.Queries
	limiter     *ratelimit.Limiter
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB, loginLimiter *ratelimit.Limiter) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
		limiter = loginLimiter
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type principalResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// POST /api/v1/auth/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !strings.Contains(req.Email, "@") {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		apiutil.WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid phone number")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	if _, err := q.GetUserByEmail(ctx, req.Email); err == nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to check existing user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	user, err := q.CreateUser(ctx, appdb.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        apiutil.ToNullString(phone),
		PasswordHash: hash,
		Role:         appdb.RoleStudent,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User registered")
	_ = apiutil.WriteJSON(w, http.StatusCreated, principalResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req credentialsRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	// Direct connections only; no proxy sits in front of the dev server.
	ip := ratelimit.GetClientIP(r, false)
	if limiter != nil {
		if result := limiter.CheckLogin(req.Email, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(req.Email, ip, result.Reason)
			w.Header().Set("Retry-After", retryAfterSeconds(result.RetryAfter))
			apiutil.WriteError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := q.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error().Err(err).Msg("Failed to load user for login")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to log in")
			return
		}
		rejectLogin(w, req.Email, ip)
		return
	}

	if !VerifyPassword(user.PasswordHash, req.Password) {
		rejectLogin(w, req.Email, ip)
		return
	}

	if limiter != nil {
		limiter.Reset(req.Email)
	}

	if err := CreateSession(w, authz.Principal{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to create session")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	_ = apiutil.WriteJSON(w, http.StatusOK, principalResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearSession(w, r)
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GET /api/v1/auth/me
func HandleMe(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	principal := apiutil.RequireAuthenticated(w, r)
	if principal == nil {
		return
	}

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := q.GetUserByID(ctx, principal.UserID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("Failed to load user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, principalResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

func rejectLogin(w http.ResponseWriter, email, ip string) {
	if limiter != nil {
		if lockedOut := limiter.RecordFailure(email, ip); lockedOut {
			log.Warn().
				Str("identifier", ratelimit.SanitizeIdentifier(email)).
				Msg("Login lockout triggered")
		}
	}
	apiutil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
}

// normalizePhone validates an optional phone number and formats it to E.164.
// Empty input is allowed and returns empty output.
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", errors.New("invalid phone number")
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// retryAfterSeconds renders a duration as whole seconds for the Retry-After
// header, never less than 1.
func retryAfterSeconds(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10)
}

func loadQueries() *appdb.Queries {
	return queries
}
