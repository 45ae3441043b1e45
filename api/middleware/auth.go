package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	pkgAuth "github.com/netbill/isp-billing/pkg/auth"
	"github.com/netbill/isp-billing/pkg/auth/session"
	"github.com/netbill/isp-billing/pkg/config"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
)

// Auth admits requests carrying a valid, unrevoked access token and attaches
// the caller as a Principal.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    principal.UserID,
					"actor_role": principal.Role,
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (Principal, error) {
	raw, err := validators.ParseBearerToken(r)
	if err != nil {
		return Principal{}, err
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, raw)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "access token expired")
	case err != nil:
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	case claims.ID == "":
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		active, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !active {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked")
		}
	}

	return Principal{
		UserID:   claims.UserID.String(),
		Role:     string(claims.Role),
		Username: claims.Username,
		AccessID: claims.ID,
	}, nil
}
