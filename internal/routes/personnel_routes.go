package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupPersonnelRoutes registers service member and contract routes.
func SetupPersonnelRoutes(group *gin.RouterGroup, deps Deps) {
	h := deps.Personnel
	read := deps.Authorizer.Require(auth.ResPersonnel, auth.ActRead)
	write := deps.Authorizer.Require(auth.ResPersonnel, auth.ActWrite)

	members := group.Group("/servicemembers")
	{
		members.GET("", read, h.ListMembers)
		members.POST("", write, h.CreateMember)
		members.GET("/:id", read, h.GetMember)
		members.PUT("/:id", write, h.UpdateMember)
		members.DELETE("/:id", write, h.DeleteMember)
		members.GET("/:id/history", read, h.History)
		members.POST("/:id/assign", write, h.AssignPosition)
		members.POST("/:id/promote", write, h.Promote)
		members.POST("/:id/dismiss", write, h.Dismiss)
		members.GET("/:id/contracts", read, h.ListContracts)
		members.POST("/:id/contracts", write, h.AddContract)
	}
	group.DELETE("/contracts/:id", write, h.DeleteContract)
}
