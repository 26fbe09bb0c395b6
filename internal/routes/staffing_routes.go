package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupStaffingRoutes registers ranks, units, specialties and positions.
func SetupStaffingRoutes(group *gin.RouterGroup, deps Deps) {
	h := deps.Staffing
	read := deps.Authorizer.Require(auth.ResStaffing, auth.ActRead)
	write := deps.Authorizer.Require(auth.ResStaffing, auth.ActWrite)

	group.GET("/ranks", read, h.ListRanks)
	group.POST("/ranks", write, h.CreateRank)
	group.DELETE("/ranks/:id", write, h.DeleteRank)

	group.GET("/units", read, h.ListUnits)
	group.GET("/units/tree", read, h.UnitTree)
	group.POST("/units", write, h.CreateUnit)

	group.GET("/specialties", read, h.ListSpecialties)
	group.POST("/specialties", write, h.CreateSpecialty)

	positions := group.Group("/positions")
	{
		positions.GET("", read, h.ListPositions)
		positions.GET("/vacant", read, h.VacantPositions)
		positions.POST("", write, h.CreatePosition)
		positions.GET("/:id", read, h.GetPosition)
		positions.PUT("/:id", write, h.UpdatePosition)
		positions.DELETE("/:id", write, h.DeletePosition)
	}
}
