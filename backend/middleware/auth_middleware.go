package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/unified-workspace/backend/entra"
	"github.com/upb/unified-workspace/backend/internal/observability"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// Client-facing messages. Verification detail is only ever logged.
const (
	MsgMissingAuthorization = "Missing or invalid authorization header"
	MsgInvalidToken         = "Invalid or expired token"
	MsgInternalError        = "Internal server error during authentication"
	MsgUnavailable          = "Authentication service unavailable"
)

const (
	modeRequired = "required"
	modeOptional = "optional"
)

// TokenVerifier defines the interface for verifying bearer tokens
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*entra.Identity, error)
}

// AuthMiddleware gates requests on a verified bearer token
type AuthMiddleware struct {
	verifier       TokenVerifier
	logger         *zap.Logger
	metrics        observability.AuthMetrics
	upstreamStatus int
}

// Option configures an AuthMiddleware
type Option func(*AuthMiddleware)

// WithMetrics records gate outcomes to m
func WithMetrics(m observability.AuthMetrics) Option {
	return func(a *AuthMiddleware) { a.metrics = m }
}

// WithUpstreamFailureStatus sets the status returned when signing keys
// cannot be fetched. Only 401 and 503 are honoured.
func WithUpstreamFailureStatus(status int) Option {
	return func(a *AuthMiddleware) {
		if status == http.StatusServiceUnavailable {
			a.upstreamStatus = status
		}
	}
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger, opts ...Option) *AuthMiddleware {
	m := &AuthMiddleware{
		verifier:       verifier,
		logger:         logger,
		metrics:        observability.NopMetrics{},
		upstreamStatus: http.StatusUnauthorized,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequireAuth rejects any request without a valid bearer token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.gate(modeRequired, w, r, next)
	})
}

// OptionalAuth lets requests without a bearer token through anonymously.
// A request that uses the Bearer scheme gets RequireAuth semantics, even when
// the credential after it is empty.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasBearerScheme(r) {
			m.metrics.RecordAuthOutcome(modeOptional, observability.OutcomeAnonymous)
			next.ServeHTTP(w, r)
			return
		}
		m.gate(modeOptional, w, r, next)
	})
}

func (m *AuthMiddleware) gate(mode string, w http.ResponseWriter, r *http.Request, next http.Handler) {
	identity, ok := m.authenticate(mode, w, r)
	if !ok {
		return
	}
	next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
}

// authenticate writes the rejection itself and reports false when the
// request must not proceed.
func (m *AuthMiddleware) authenticate(mode string, w http.ResponseWriter, r *http.Request) (identity *entra.Identity, ok bool) {
	ctx := r.Context()
	requestID := chimw.GetReqID(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("authentication middleware panic",
				zap.String("request_id", requestID),
				zap.String("panic", fmt.Sprint(rec)))
			m.reject(w, mode, http.StatusInternalServerError, observability.OutcomeInternalError, MsgInternalError)
			identity, ok = nil, false
		}
	}()

	token := extractBearerToken(r)
	if token == "" {
		m.logger.Warn("missing token",
			zap.String("request_id", requestID))
		m.reject(w, mode, http.StatusUnauthorized, observability.OutcomeMissingToken, MsgMissingAuthorization)
		return nil, false
	}

	identity, err := m.verifier.Verify(ctx, token)
	switch {
	case err != nil && entra.IsUpstream(err):
		m.logger.Error("signing keys unavailable",
			zap.String("request_id", requestID),
			zap.Error(err))
		if m.upstreamStatus == http.StatusServiceUnavailable {
			m.reject(w, mode, http.StatusServiceUnavailable, observability.OutcomeUnavailable, MsgUnavailable)
		} else {
			m.reject(w, mode, http.StatusUnauthorized, observability.OutcomeRejected, MsgInvalidToken)
		}
		return nil, false

	case err != nil && entra.Reason(err) != nil:
		m.logger.Warn("token validation failed",
			zap.String("request_id", requestID),
			zap.String("reason", entra.Reason(err).Error()),
			zap.Error(err))
		m.reject(w, mode, http.StatusUnauthorized, observability.OutcomeRejected, MsgInvalidToken)
		return nil, false

	case err != nil || identity == nil:
		m.logger.Error("unexpected verifier failure",
			zap.String("request_id", requestID),
			zap.Error(err))
		m.reject(w, mode, http.StatusInternalServerError, observability.OutcomeInternalError, MsgInternalError)
		return nil, false
	}

	m.metrics.RecordAuthOutcome(mode, observability.OutcomeAuthenticated)
	m.logger.Debug("authentication successful",
		zap.String("request_id", requestID),
		zap.String("sub", identity.Subject()),
		zap.String("tid", identity.TenantID()))
	return identity, true
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, mode string, status int, outcome, message string) {
	m.metrics.RecordAuthOutcome(mode, outcome)
	if err := utils.WriteAuthError(w, status, message); err != nil {
		m.logger.Error("failed to write auth error response", zap.Error(err))
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header.
// Any other scheme, or an empty credential, yields "".
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// hasBearerScheme reports whether the Authorization header names the Bearer
// scheme, with or without a credential.
func hasBearerScheme(r *http.Request) bool {
	scheme, _, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	return strings.EqualFold(scheme, "bearer")
}
