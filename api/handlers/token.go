package handlers

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/api"
	"github.com/BaSui01/webqa/types"
)

// TokenHandler exchanges a valid API key for a short-lived HS256 bearer
// token so browser clients never hold the long-lived key.
type TokenHandler struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenHandler creates the token issuer.
func NewTokenHandler(secret string, ttl time.Duration, logger *zap.Logger) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenHandler{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With(zap.String("component", "token")),
		now:    time.Now,
	}
}

// ServeHTTP handles POST /api/v1/token. Callers reach it through the API-key
// middleware, so arriving here means the key already checked out.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(h.secret) == 0 {
		WriteError(w, types.NewError(types.ErrInternalError, "token issuing is not configured"), h.logger)
		return
	}

	now := h.now()
	expires := now.Add(h.ttl)
	claims := jwt.MapClaims{
		"iss": "webqa",
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		WriteError(w, types.WrapError(types.ErrInternalError, "sign token", err), h.logger)
		return
	}

	WriteSuccess(w, api.TokenResponse{Token: token, ExpiresAt: expires})
}

// VerifyToken parses and validates a bearer token issued by this handler.
func VerifyToken(secret []byte, raw string) error {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer("webqa"), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenUnverifiable
	}
	return nil
}
