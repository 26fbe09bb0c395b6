package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupAuthRoutes registers login, logout and the current user.
func SetupAuthRoutes(apiV1 *gin.RouterGroup, deps Deps) {
	publicAuthGroup := apiV1.Group("/auth")
	{
		login := []gin.HandlerFunc{deps.Auth.Login}
		if deps.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{deps.LoginLimiter}, login...)
		}
		publicAuthGroup.POST("/login", login...)
	}

	protectedAuthGroup := apiV1.Group("/auth")
	protectedAuthGroup.Use(auth.JWTMiddleware(deps.Issuer, deps.Denylist))
	{
		protectedAuthGroup.POST("/logout", deps.Auth.Logout)
		protectedAuthGroup.GET("/me", deps.Auth.Me)
	}
}
