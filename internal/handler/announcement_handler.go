package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, models.Pagination, error)
	Recent(ctx context.Context, limit int) ([]models.Announcement, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, actor *models.User, req dto.CreateAnnouncementRequest) (*models.Announcement, error)
	Update(ctx context.Context, actor *models.User, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

// AnnouncementHandler exposes the notice board.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements
// @Description Important announcements first, then newest first
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search over title and content"
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	filter := models.AnnouncementFilter{Search: c.Query("search"), Page: pageFromQuery(c)}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"announcements": items, "pagination": pagination})
}

// Recent godoc
// @Summary Recent announcements
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of announcements" default(5)
// @Success 200 {object} response.Envelope
// @Router /announcements/recent [get]
func (h *AnnouncementHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"announcements": items})
}

// Get godoc
// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"announcement": item})
}

// Create godoc
// @Summary Create announcement
// @Description Important announcements notify every other active user
// @Tags Announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	item, err := h.service.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"announcement": item})
}

// Update godoc
// @Summary Update announcement
// @Description Author or administrator only
// @Tags Announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Param payload body dto.UpdateAnnouncementRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	item, err := h.service.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"announcement": item})
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "announcement deleted"})
}
