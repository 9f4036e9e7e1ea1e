package handler

import (
	"net/http"

	"rcm_backend/internal/scheduler"
	"rcm_backend/internal/vob/service"
	"rcm_backend/internal/vob/transport"
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
	svc   *service.Service
	sched scheduler.VerificationScheduler
	val   *validator.Validator
}

func New(svc *service.Service, sched scheduler.VerificationScheduler, val *validator.Validator) *Handler {
	return &Handler{svc: svc, sched: sched, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Verify)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/reverify", h.Reverify)
	rg.POST("/:id/export", h.ExportPDF)
	rg.GET("/payers", h.SearchPayers)
}

// RegisterLeadRoutes mounts per-lead verification listing under the leads group.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/verifications", h.ListByLead)
}

func (h *Handler) Verify(c *gin.Context) {
	var req transport.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if req.Background && h.sched != nil {
		if err := h.sched.ScheduleLeadVerification(c.Request.Context(), scheduler.VerifyLeadPayload{
			LeadID:  req.LeadID.String(),
			PayerID: req.PayerID,
		}); err != nil {
			httpkit.Error(c, http.StatusInternalServerError, "could not queue verification", nil)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.VerificationQueuedResponse{LeadID: req.LeadID, Queued: true})
		return
	}

	verification, err := h.svc.Verify(c.Request.Context(), req.LeadID, req.PayerID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.FromVerification(verification))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	verification, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromVerification(verification))
}

func (h *Handler) Reverify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	verification, err := h.svc.Reverify(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.FromVerification(verification))
}

func (h *Handler) ExportPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	url, err := h.svc.ExportPDF(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ExportResponse{DownloadURL: url})
}

func (h *Handler) SearchPayers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		httpkit.Error(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	payers, err := h.svc.SearchPayers(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, payers)
}

func (h *Handler) ListByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items, err := h.svc.ListByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromVerifications(items))
}
