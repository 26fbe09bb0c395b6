package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/utils"
)

// PersonnelHandler serves service members, their transitions and contracts.
type PersonnelHandler struct {
	service  services.PersonnelService
	staffing services.StaffingService
}

// NewPersonnelHandler creates a PersonnelHandler.
func NewPersonnelHandler(service services.PersonnelService, staffing services.StaffingService) *PersonnelHandler {
	return &PersonnelHandler{service: service, staffing: staffing}
}

// ListMembers godoc
// @Summary List service members
// @Description Paged list with search by name or tax id. sortBy=name sorts by Ukrainian collation.
// @Tags personnel
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param sortBy query string false "name, lastName, status, createdAt"
// @Param sortOrder query string false "asc or desc" default(desc)
// @Param search query string false "Name or tax id"
// @Param status query string false "Status filter"
// @Param rankId query int false "Rank filter"
// @Param unitId query int false "Unit filter, includes subordinate units"
// @Success 200 {object} utils.SuccessResponse{data=utils.PagedData{items=[]models.ServiceMember}}
// @Failure 400 {object} utils.APIErrorResponse
// @Router /servicemembers [get]
// @Security BearerAuth
func (h *PersonnelHandler) ListMembers(c *gin.Context) {
	var q struct {
		listQuery
		Status string `form:"status"`
		RankID int64  `form:"rankId"`
		UnitID int64  `form:"unitId"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	filter := repositories.ServiceMemberFilter{ListParams: q.params(), Status: q.Status, RankID: q.RankID}
	if q.SortBy == "name" && c.Query("sortOrder") == "" {
		filter.SortOrder = "asc"
	}
	if q.UnitID > 0 {
		scope, err := h.staffing.UnitScope(c.Request.Context(), q.UnitID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		filter.UnitIDs = scope
	}
	members, total, err := h.service.ListMembers(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, paged(members, total, filter.ListParams), "")
}

// CreateMember godoc
// @Summary Enlist a service member
// @Description Creates the personal card and an ENLISTMENT service history event.
// @Tags personnel
// @Accept json
// @Produce json
// @Param member body models.ServiceMemberCreatePayload true "Service member"
// @Success 201 {object} utils.SuccessResponse{data=models.ServiceMember}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse "Tax id already registered"
// @Failure 422 {object} utils.APIErrorResponse "Unknown rank"
// @Router /servicemembers [post]
// @Security BearerAuth
func (h *PersonnelHandler) CreateMember(c *gin.Context) {
	var payload models.ServiceMemberCreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	m, err := h.service.CreateMember(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, m, "Service member created")
}

// GetMember godoc
// @Summary Personal card
// @Description Returns the member with contracts and history. Writes a VIEW audit row.
// @Tags personnel
// @Produce json
// @Param id path int true "Service member ID"
// @Success 200 {object} utils.SuccessResponse{data=services.MemberDetail}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /servicemembers/{id} [get]
// @Security BearerAuth
func (h *PersonnelHandler) GetMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetMember(c.Request.Context(), audit.FromGin(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, detail, "")
}

// UpdateMember godoc
// @Summary Update a service member
// @Description Rank and position change only through transitions. Sensitive field changes get a CRITICAL audit row.
// @Tags personnel
// @Accept json
// @Produce json
// @Param id path int true "Service member ID"
// @Param member body models.ServiceMemberUpdatePayload true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=models.ServiceMember}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse
// @Router /servicemembers/{id} [put]
// @Security BearerAuth
func (h *PersonnelHandler) UpdateMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.ServiceMemberUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	m, err := h.service.UpdateMember(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, m, "Service member updated")
}

// DeleteMember godoc
// @Summary Delete a service member
// @Description Deletes the member with history and contracts.
// @Tags personnel
// @Produce json
// @Param id path int true "Service member ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Router /servicemembers/{id} [delete]
// @Security BearerAuth
func (h *PersonnelHandler) DeleteMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteMember(c.Request.Context(), audit.FromGin(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Service member deleted")
}

// History godoc
// @Summary Position and service history
// @Tags personnel
// @Produce json
// @Param id path int true "Service member ID"
// @Success 200 {object} utils.SuccessResponse{data=services.MemberHistory}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /servicemembers/{id}/history [get]
// @Security BearerAuth
func (h *PersonnelHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, history, "")
}

// AssignPosition godoc
// @Summary Appoint or transfer to a position
// @Tags personnel
// @Accept json
// @Produce json
// @Param id path int true "Service member ID"
// @Param assignment body models.AssignPositionPayload true "Target position"
// @Success 200 {object} utils.SuccessResponse{data=models.ServiceMember}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse "Position occupied"
// @Failure 422 {object} utils.APIErrorResponse "Unknown position"
// @Router /servicemembers/{id}/assign [post]
// @Security BearerAuth
func (h *PersonnelHandler) AssignPosition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.AssignPositionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	m, err := h.service.AssignPosition(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, m, "Position assigned")
}

// Promote godoc
// @Summary Promote to a rank
// @Tags personnel
// @Accept json
// @Produce json
// @Param id path int true "Service member ID"
// @Param promotion body models.PromotePayload true "New rank"
// @Success 200 {object} utils.SuccessResponse{data=models.ServiceMember}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 422 {object} utils.APIErrorResponse "Unknown rank"
// @Router /servicemembers/{id}/promote [post]
// @Security BearerAuth
func (h *PersonnelHandler) Promote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.PromotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	m, err := h.service.Promote(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, m, "Rank assigned")
}

// Dismiss godoc
// @Summary Dismiss from service
// @Description Vacates the position and records a DISMISSAL event.
// @Tags personnel
// @Accept json
// @Produce json
// @Param id path int true "Service member ID"
// @Param dismissal body models.DismissPayload true "Reason and order"
// @Success 200 {object} utils.SuccessResponse{data=models.ServiceMember}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse
// @Router /servicemembers/{id}/dismiss [post]
// @Security BearerAuth
func (h *PersonnelHandler) Dismiss(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.DismissPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	m, err := h.service.Dismiss(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, m, "Service member dismissed")
}

// ListContracts godoc
// @Summary Contracts of a service member
// @Tags personnel
// @Produce json
// @Param id path int true "Service member ID"
// @Success 200 {object} utils.SuccessResponse{data=[]models.Contract}
// @Router /servicemembers/{id}/contracts [get]
// @Security BearerAuth
func (h *PersonnelHandler) ListContracts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListContracts(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, list, "")
}

// AddContract godoc
// @Summary Add a contract
// @Tags personnel
// @Accept json
// @Produce json
// @Param id path int true "Service member ID"
// @Param contract body models.ContractPayload true "Contract period"
// @Success 201 {object} utils.SuccessResponse{data=models.Contract}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Router /servicemembers/{id}/contracts [post]
// @Security BearerAuth
func (h *PersonnelHandler) AddContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.ContractPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	contract, err := h.service.AddContract(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, contract, "Contract added")
}

// DeleteContract godoc
// @Summary Delete a contract
// @Tags personnel
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Router /contracts/{id} [delete]
// @Security BearerAuth
func (h *PersonnelHandler) DeleteContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteContract(c.Request.Context(), audit.FromGin(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Contract deleted")
}
