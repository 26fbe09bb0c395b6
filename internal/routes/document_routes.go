package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupDocumentRoutes registers serviceman report routes.
func SetupDocumentRoutes(group *gin.RouterGroup, deps Deps) {
	h := deps.Documents
	read := deps.Authorizer.Require(auth.ResDocuments, auth.ActRead)
	write := deps.Authorizer.Require(auth.ResDocuments, auth.ActWrite)

	reports := group.Group("/reports")
	{
		reports.GET("", read, h.ListReports)
		reports.POST("", write, h.CreateReport)
		reports.GET("/:id", read, h.GetReport)
		reports.PUT("/:id", write, h.UpdateReport)
		reports.POST("/:id/review", deps.Authorizer.Require(auth.ResDocuments, auth.ActReview), h.Review)
		reports.POST("/:id/attachment", write, h.AttachFile)
	}
}
