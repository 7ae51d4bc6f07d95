package middleware

import (
	"context"
	"errors"
	"net/http"

	"retreat/infras/jwt"
	"retreat/infras/otel"
	"retreat/permissions"
	"retreat/shared/constant"
	"retreat/shared/failure"
	"retreat/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Auth interface {
	Auth(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

// AuthRole is the bearer token check plus the role gate driven by permissions.json.
type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
}

// NewAuthRoleMiddleware creates a new middleware instance. Without a permission table every route would be open.
func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData) AuthRole {
	if permissions == nil {
		log.Fatal().Msg("Permission table is not loaded")
	}

	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
	}
}

// routePermission resolves the permission entry for the route the request will hit.
func (m *authRoleImpl) routePermission(request *http.Request) (string, permissions.Permission) {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || rctx.Routes == nil {
		return "", permissions.Permission{}
	}

	path := rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path)

	return path, m.permission.FindPermissions(path, request.Method)
}

// Auth validates the bearer token unless the route is public.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if m.permission.Skip {
			next.ServeHTTP(writer, request)

			return
		}

		path, permission := m.routePermission(request)
		if permission.Skip {
			next.ServeHTTP(writer, request)

			return
		}

		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "auth.middleware")
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"http.route":  path,
			"http.method": request.Method,
		})

		claims, err := m.authenticate(request)
		if err != nil {
			scope.TraceError(err)
			response.WithError(writer, err)

			return
		}

		scope.SetAttribute("auth.role", claims.Role)

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, claims.Role)
		ctx = context.WithValue(ctx, constant.ContextKeyTokenID, claims.ID)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// authenticate turns the Authorization header into claims or a 401 failure.
func (m *authRoleImpl) authenticate(request *http.Request) (*jwt.Claims, error) {
	token, err := jwt.ExtractTokenFromHeader(request.Header.Get(constant.RequestHeaderAuthorization))
	if errors.Is(err, jwt.ErrMissingHeader) {
		return nil, failure.Unauthorized("Missing authorization header")
	}

	if err != nil {
		return nil, failure.Unauthorized("Invalid authorization header format")
	}

	claims, err := m.jwtService.Validate(token)

	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, failure.Unauthorized("Token has expired")
	case errors.Is(err, jwt.ErrInvalidToken):
		return nil, failure.Unauthorized("Invalid token")
	case errors.Is(err, jwt.ErrMissingSecret):
		log.Error().Err(err).Msg("authentication is not configured")

		return nil, failure.Unauthorized("Token validation failed")
	case err != nil:
		return nil, failure.Unauthorized("Token validation failed")
	}

	if claims.Subject == "" || claims.Role == "" {
		log.Warn().Str("subject", claims.Subject).Str("role", claims.Role).Msg("JWT claims are incomplete")

		return nil, failure.Unauthorized("Invalid token claims")
	}

	return claims, nil
}

// RBAC checks the caller's role against the route's allowed roles. It runs after Auth.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if m.permission.Skip {
			next.ServeHTTP(writer, request)

			return
		}

		path, permission := m.routePermission(request)
		role, _ := request.Context().Value(constant.ContextKeyUserRole).(string)

		if permission.Allows(role) {
			next.ServeHTTP(writer, request)

			return
		}

		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "rbac.middleware")
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"http.route":    path,
			"auth.role":     role,
			"allowed_roles": permission.Permissions,
		})
		scope.TraceError(failure.ForbiddenError)

		log.Warn().Str("route", path).Str("role", role).Msg("role not allowed on route")

		response.WithError(writer, failure.ForbiddenError)
	})
}
