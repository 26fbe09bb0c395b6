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

// StaffingHandler serves ranks, units, specialties and positions.
type StaffingHandler struct {
	service services.StaffingService
}

// NewStaffingHandler creates a StaffingHandler.
func NewStaffingHandler(service services.StaffingService) *StaffingHandler {
	return &StaffingHandler{service: service}
}

// ListRanks godoc
// @Summary Ranks in seniority order
// @Tags staffing
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.Rank}
// @Router /ranks [get]
// @Security BearerAuth
func (h *StaffingHandler) ListRanks(c *gin.Context) {
	ranks, err := h.service.ListRanks(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, ranks, "")
}

// CreateRank godoc
// @Summary Create a rank
// @Tags staffing
// @Accept json
// @Produce json
// @Param rank body models.RankPayload true "Rank"
// @Success 201 {object} utils.SuccessResponse{data=models.Rank}
// @Failure 409 {object} utils.APIErrorResponse
// @Router /ranks [post]
// @Security BearerAuth
func (h *StaffingHandler) CreateRank(c *gin.Context) {
	var payload models.RankPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	rank, err := h.service.CreateRank(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, rank, "Rank created")
}

// DeleteRank godoc
// @Summary Delete an unused rank
// @Tags staffing
// @Produce json
// @Param id path int true "Rank ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse "Rank in use"
// @Router /ranks/{id} [delete]
// @Security BearerAuth
func (h *StaffingHandler) DeleteRank(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRank(c.Request.Context(), audit.FromGin(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Rank deleted")
}

// ListUnits godoc
// @Summary Units (flat)
// @Tags staffing
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.Unit}
// @Router /units [get]
// @Security BearerAuth
func (h *StaffingHandler) ListUnits(c *gin.Context) {
	units, err := h.service.ListUnits(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, units, "")
}

// UnitTree godoc
// @Summary Units as a tree
// @Tags staffing
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.UnitNode}
// @Router /units/tree [get]
// @Security BearerAuth
func (h *StaffingHandler) UnitTree(c *gin.Context) {
	tree, err := h.service.UnitTree(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, tree, "")
}

// CreateUnit godoc
// @Summary Create a unit
// @Tags staffing
// @Accept json
// @Produce json
// @Param unit body models.UnitPayload true "Unit"
// @Success 201 {object} utils.SuccessResponse{data=models.Unit}
// @Failure 422 {object} utils.APIErrorResponse "Unknown parent"
// @Router /units [post]
// @Security BearerAuth
func (h *StaffingHandler) CreateUnit(c *gin.Context) {
	var payload models.UnitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	unit, err := h.service.CreateUnit(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, unit, "Unit created")
}

// ListSpecialties godoc
// @Summary Military specialties
// @Tags staffing
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.MilitarySpecialty}
// @Router /specialties [get]
// @Security BearerAuth
func (h *StaffingHandler) ListSpecialties(c *gin.Context) {
	list, err := h.service.ListSpecialties(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, list, "")
}

// CreateSpecialty godoc
// @Summary Create a military specialty
// @Tags staffing
// @Accept json
// @Produce json
// @Param specialty body models.SpecialtyPayload true "Specialty"
// @Success 201 {object} utils.SuccessResponse{data=models.MilitarySpecialty}
// @Failure 409 {object} utils.APIErrorResponse
// @Router /specialties [post]
// @Security BearerAuth
func (h *StaffingHandler) CreateSpecialty(c *gin.Context) {
	var payload models.SpecialtyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	s, err := h.service.CreateSpecialty(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, s, "Specialty created")
}

// ListPositions godoc
// @Summary List positions
// @Tags staffing
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Name or position index"
// @Param unitId query int false "Unit filter, includes subordinate units"
// @Param vacant query bool false "Only vacant positions"
// @Success 200 {object} utils.SuccessResponse{data=utils.PagedData{items=[]models.Position}}
// @Router /positions [get]
// @Security BearerAuth
func (h *StaffingHandler) ListPositions(c *gin.Context) {
	var q struct {
		listQuery
		UnitID int64 `form:"unitId"`
		Vacant bool  `form:"vacant"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	filter := repositories.PositionFilter{ListParams: q.params(), VacantOnly: q.Vacant}
	if q.UnitID > 0 {
		scope, err := h.service.UnitScope(c.Request.Context(), q.UnitID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		filter.UnitIDs = scope
	}
	list, total, err := h.service.ListPositions(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, paged(list, total, filter.ListParams), "")
}

// VacantPositions godoc
// @Summary Vacant positions
// @Tags staffing
// @Produce json
// @Param unitId query int false "Unit filter, includes subordinate units"
// @Success 200 {object} utils.SuccessResponse{data=[]models.Position}
// @Router /positions/vacant [get]
// @Security BearerAuth
func (h *StaffingHandler) VacantPositions(c *gin.Context) {
	var q struct {
		UnitID int64 `form:"unitId"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	list, err := h.service.VacantPositions(c.Request.Context(), q.UnitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, list, "")
}

// CreatePosition godoc
// @Summary Create a position
// @Tags staffing
// @Accept json
// @Produce json
// @Param position body models.PositionPayload true "Position"
// @Success 201 {object} utils.SuccessResponse{data=models.Position}
// @Failure 409 {object} utils.APIErrorResponse "Position index exists"
// @Failure 422 {object} utils.APIErrorResponse "Unknown unit or specialty"
// @Router /positions [post]
// @Security BearerAuth
func (h *StaffingHandler) CreatePosition(c *gin.Context) {
	var payload models.PositionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	p, err := h.service.CreatePosition(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, p, "Position created")
}

// GetPosition godoc
// @Summary Get a position
// @Tags staffing
// @Produce json
// @Param id path int true "Position ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Position}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /positions/{id} [get]
// @Security BearerAuth
func (h *StaffingHandler) GetPosition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPosition(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, p, "")
}

// UpdatePosition godoc
// @Summary Update a position
// @Tags staffing
// @Accept json
// @Produce json
// @Param id path int true "Position ID"
// @Param position body models.PositionUpdatePayload true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=models.Position}
// @Failure 404 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse
// @Router /positions/{id} [put]
// @Security BearerAuth
func (h *StaffingHandler) UpdatePosition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.PositionUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	p, err := h.service.UpdatePosition(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, p, "Position updated")
}

// DeletePosition godoc
// @Summary Delete a position
// @Description Held positions and positions referenced by history cannot be deleted.
// @Tags staffing
// @Produce json
// @Param id path int true "Position ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse
// @Router /positions/{id} [delete]
// @Security BearerAuth
func (h *StaffingHandler) DeletePosition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePosition(c.Request.Context(), audit.FromGin(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Position deleted")
}
