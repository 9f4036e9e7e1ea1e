package handler

import (
	"net/http"
	"strconv"

	"rcm_backend/internal/denials/service"
	"rcm_backend/internal/denials/transport"
	"rcm_backend/platform/httpkit"
	"rcm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Record)
	rg.GET("/:id", h.GetByID)
}

func (h *Handler) Record(c *gin.Context) {
	var req transport.RecordDenialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	denial, err := h.svc.Record(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.FromDenial(denial))
}

func (h *Handler) List(c *gin.Context) {
	var claimID *uuid.UUID
	if raw := c.Query("claimId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		claimID = &parsed
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	denials, err := h.svc.List(c.Request.Context(), claimID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromDenials(denials))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	denial, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromDenial(denial))
}
