package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/edugate/monitoring-core/internal/auth"
	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
)

// deviceTokenHeader carries the device token on ingestion routes.
const deviceTokenHeader = "X-Device-Token"

// deviceAuthMiddleware resolves X-Device-Token to a device. Inactive devices
// pass; the access policy records their requests as denied.
func (s *Server) deviceAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(deviceTokenHeader)
		if token == "" {
			writeUnauthorized(w, "missing device token")
			return
		}

		dev, err := s.service.AuthenticateDevice(r.Context(), token)
		if err != nil {
			if errors.Is(err, device.ErrUnknownToken) {
				s.logger.Warn("rejected device token", "token_prefix", logging.TokenPrefix(token))
				writeUnauthorized(w, "invalid device token")
				return
			}
			s.logger.Error("authenticating device", "error", err)
			writeInternalError(w, "failed to authenticate device")
			return
		}

		setCaller(r.Context(), "device:"+dev.ID)
		ctx := context.WithValue(r.Context(), ctxKeyDevice, dev)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminAuthMiddleware validates the bearer JWT and stores the principal.
func (s *Server) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeUnauthorized(w, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(raw, s.secCfg.JWT.Secret)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		p := claims.Principal()
		setCaller(r.Context(), "admin:"+p.Subject)
		ctx := context.WithValue(r.Context(), ctxKeyPrincipal, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// require returns middleware that enforces perm on the request principal.
func (s *Server) require(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principalFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "authentication required")
				return
			}
			if err := s.checker.Require(p, perm); err != nil {
				s.logger.Warn("permission denied", "subject", p.Subject, "role", p.Role, "permission", perm)
				writeError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deviceFromContext(ctx context.Context) (*device.Device, bool) {
	d, ok := ctx.Value(ctxKeyDevice).(*device.Device)
	return d, ok && d != nil
}

func principalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(auth.Principal)
	return p, ok
}
