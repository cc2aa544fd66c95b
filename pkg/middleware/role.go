package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
)

// Papéis reexportados do domínio para conveniência dos handlers.
const (
	RoleAdmin      = domain.RoleAdmin
	RoleSupervisor = domain.RoleSupervisor
	RoleAnalyst    = domain.RoleAnalyst
)

// RoleMiddleware restringe a rota aos papéis informados. Pressupõe que o
// AuthMiddleware já populou as claims no contexto.
func RoleMiddleware(allowedRoles ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(ContextKeyUser).(*domain.Claims)
			if !ok {
				logrus.Warning("Tentativa de acesso sem autenticação")
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
				return
			}

			for _, role := range allowedRoles {
				if claims.UserRoleID == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logrus.Warningf("Acesso negado para usuário ID=%d, Role=%d", claims.UserID, claims.UserRoleID)
			apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
		})
	}
}

// AdminOnly restringe a rota a administradores.
func AdminOnly() func(http.Handler) http.Handler {
	return RoleMiddleware(RoleAdmin)
}

// AdminOrSupervisor restringe a rota aos papéis de gestão.
func AdminOrSupervisor() func(http.Handler) http.Handler {
	return RoleMiddleware(RoleAdmin, RoleSupervisor)
}

// AllRoles exige apenas um usuário autenticado.
func AllRoles() func(http.Handler) http.Handler {
	return RoleMiddleware(RoleAdmin, RoleSupervisor, RoleAnalyst)
}
