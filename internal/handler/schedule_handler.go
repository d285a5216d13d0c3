package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
	"github.com/noah-isme/school-office-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, models.Pagination, error)
	Today(ctx context.Context) ([]models.Schedule, error)
	Get(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, actor *models.User, req dto.CreateScheduleRequest) (*models.Schedule, error)
	Update(ctx context.Context, actor *models.User, id string, req dto.UpdateScheduleRequest) (*models.Schedule, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	Export(ctx context.Context, filter models.ScheduleFilter, format string) (*service.ScheduleExport, error)
}

// ScheduleHandler manages schedule endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

func scheduleFilter(c *gin.Context) models.ScheduleFilter {
	return models.ScheduleFilter{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Type:      models.ScheduleType(c.Query("type")),
		Page:      pageFromQuery(c),
	}
}

// List godoc
// @Summary List schedules
// @Description Soonest date first, then soonest start time
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param type query string false "Schedule type or all"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), scheduleFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"schedules": items, "pagination": pagination})
}

// Today godoc
// @Summary Today's schedules
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedules/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	items, err := h.service.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"schedules": items})
}

// Export godoc
// @Summary Export schedules
// @Description Renders the filtered schedules as csv, pdf, xlsx or ics
// @Tags Schedules
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv, pdf, xlsx or ics" default(csv)
// @Param startDate query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param type query string false "Schedule type or all"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	out, err := h.service.Export(c.Request.Context(), scheduleFilter(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, out.ContentType, out.Content)
}

// Get godoc
// @Summary Get schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"schedule": item})
}

// Create godoc
// @Summary Create schedule
// @Description Notifies every other active user
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateScheduleRequest true "Schedule"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	item, err := h.service.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"schedule": item})
}

// Update godoc
// @Summary Update schedule
// @Description Creator or administrator only
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param payload body dto.UpdateScheduleRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	item, err := h.service.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"schedule": item})
}

// Delete godoc
// @Summary Delete schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "schedule deleted"})
}
