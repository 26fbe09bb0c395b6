package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupOrderRoutes registers orders, their actions and the lifecycle transitions.
func SetupOrderRoutes(group *gin.RouterGroup, deps Deps) {
	h := deps.Orders
	read := deps.Authorizer.Require(auth.ResOrders, auth.ActRead)
	write := deps.Authorizer.Require(auth.ResOrders, auth.ActWrite)
	sign := deps.Authorizer.Require(auth.ResOrders, auth.ActSign)
	execute := deps.Authorizer.Require(auth.ResOrders, auth.ActExecute)

	orders := group.Group("/orders")
	{
		orders.GET("", read, h.ListOrders)
		orders.POST("", write, h.CreateOrder)
		orders.POST("/execute", execute, h.ExecuteMany)
		orders.GET("/:id", read, h.GetOrder)
		orders.PUT("/:id", write, h.UpdateOrder)
		orders.DELETE("/:id", write, h.DeleteOrder)
		orders.POST("/:id/actions", write, h.AddAction)
		orders.DELETE("/:id/actions/:actionId", write, h.RemoveAction)
		orders.POST("/:id/submit", write, h.Submit)
		orders.POST("/:id/sign", sign, h.Sign)
		orders.POST("/:id/cancel", write, h.Cancel)
		orders.POST("/:id/execute", execute, h.Execute)
	}
}
