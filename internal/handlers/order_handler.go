package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/utils"
)

// OrderHandler serves orders, their actions and execution.
type OrderHandler struct {
	service services.OrderService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(service services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// ExecuteResponse reports a single order execution.
type ExecuteResponse struct {
	OrderID int64 `json:"orderId"`
	Applied int   `json:"applied"`
}

// ListOrders godoc
// @Summary List orders
// @Tags orders
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Order number or text"
// @Param status query string false "DRAFT, ON_APPROVAL, SIGNED, EXECUTED, CANCELED"
// @Param orderType query string false "PERSONNEL or SERVICE"
// @Success 200 {object} utils.SuccessResponse{data=utils.PagedData{items=[]models.Order}}
// @Router /orders [get]
// @Security BearerAuth
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q struct {
		listQuery
		Status    string `form:"status"`
		OrderType string `form:"orderType"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	filter := repositories.OrderFilter{ListParams: q.params(), Status: q.Status, OrderType: q.OrderType}
	list, total, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, paged(list, total, filter.ListParams), "")
}

// CreateOrder godoc
// @Summary Create a draft order
// @Tags orders
// @Accept json
// @Produce json
// @Param order body models.OrderCreatePayload true "Order"
// @Success 201 {object} utils.SuccessResponse{data=models.Order}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse "Order number exists"
// @Router /orders [post]
// @Security BearerAuth
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var payload models.OrderCreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	o, err := h.service.CreateOrder(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, o, "Order created")
}

// GetOrder godoc
// @Summary Get an order with its actions
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Order}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /orders/{id} [get]
// @Security BearerAuth
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, o, "")
}

// UpdateOrder godoc
// @Summary Update a draft order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param order body models.OrderUpdatePayload true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=models.Order}
// @Failure 409 {object} utils.APIErrorResponse "Order is not a draft"
// @Router /orders/{id} [put]
// @Security BearerAuth
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.OrderUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	o, err := h.service.UpdateOrder(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, o, "Order updated")
}

// DeleteOrder godoc
// @Summary Delete a draft or canceled order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.APIErrorResponse
// @Router /orders/{id} [delete]
// @Security BearerAuth
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(c.Request.Context(), audit.FromGin(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Order deleted")
}

// AddAction godoc
// @Summary Add an action to a draft order
// @Description details depend on actionType, e.g. {"new_position_id": 5} for APPOINT.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param action body models.OrderActionPayload true "Action"
// @Success 201 {object} utils.SuccessResponse{data=models.OrderAction}
// @Failure 400 {object} utils.APIErrorResponse "Invalid action details"
// @Failure 409 {object} utils.APIErrorResponse "Order is not a draft"
// @Failure 422 {object} utils.APIErrorResponse "Unknown service member"
// @Router /orders/{id}/actions [post]
// @Security BearerAuth
func (h *OrderHandler) AddAction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.OrderActionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	a, err := h.service.AddAction(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, a, "Action added")
}

// RemoveAction godoc
// @Summary Remove an action from a draft order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Param actionId path int true "Action ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse
// @Router /orders/{id}/actions/{actionId} [delete]
// @Security BearerAuth
func (h *OrderHandler) RemoveAction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actionID, ok := pathID(c, "actionId")
	if !ok {
		return
	}
	if err := h.service.RemoveAction(c.Request.Context(), audit.FromGin(c), id, actionID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Action removed")
}

type orderTransition func(ctx context.Context, actx audit.Context, id int64) (*models.Order, error)

func (h *OrderHandler) transition(c *gin.Context, apply orderTransition, message string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := apply(c.Request.Context(), audit.FromGin(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, o, message)
}

// Submit godoc
// @Summary Submit a draft order for review
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Order}
// @Failure 409 {object} utils.APIErrorResponse
// @Router /orders/{id}/submit [post]
// @Security BearerAuth
func (h *OrderHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.Submit, "Order submitted")
}

// Sign godoc
// @Summary Sign a draft or submitted order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Order}
// @Failure 409 {object} utils.APIErrorResponse
// @Router /orders/{id}/sign [post]
// @Security BearerAuth
func (h *OrderHandler) Sign(c *gin.Context) {
	h.transition(c, h.service.Sign, "Order signed")
}

// Cancel godoc
// @Summary Cancel an order that has not been executed
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Order}
// @Failure 409 {object} utils.APIErrorResponse
// @Router /orders/{id}/cancel [post]
// @Security BearerAuth
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel, "Order canceled")
}

// Execute godoc
// @Summary Execute a signed order
// @Description Applies all pending actions in one transaction. Any failing action rolls back the whole order.
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} utils.SuccessResponse{data=ExecuteResponse}
// @Failure 400 {object} utils.APIErrorResponse "Invalid action details"
// @Failure 409 {object} utils.APIErrorResponse "Order not signed or position occupied"
// @Failure 422 {object} utils.APIErrorResponse "Referenced record missing"
// @Router /orders/{id}/execute [post]
// @Security BearerAuth
func (h *OrderHandler) Execute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	applied, err := h.service.Execute(c.Request.Context(), audit.FromGin(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, ExecuteResponse{OrderID: id, Applied: applied}, "Order executed")
}

// ExecuteMany godoc
// @Summary Execute several orders
// @Description Each order runs in its own transaction; results are reported per order.
// @Tags orders
// @Accept json
// @Produce json
// @Param orders body models.BulkExecutePayload true "Order IDs"
// @Success 200 {object} utils.SuccessResponse{data=[]services.ExecutionResult}
// @Failure 400 {object} utils.APIErrorResponse
// @Router /orders/execute [post]
// @Security BearerAuth
func (h *OrderHandler) ExecuteMany(c *gin.Context) {
	var payload models.BulkExecutePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	results := h.service.ExecuteMany(c.Request.Context(), audit.FromGin(c), payload.OrderIDs)
	utils.RespondSuccess(c, http.StatusOK, results, "")
}
