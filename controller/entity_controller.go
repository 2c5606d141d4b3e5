package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/services"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/gin-gonic/gin"
)

// actorHeader names the caller recorded in createdBy/modifiedBy and activity logs
const actorHeader = "X-Actor"

// EntityController serves the HTTP resource of one entity type
type EntityController[T models.Entity] struct {
	service      services.EntityServiceInterface[T]
	newEntity    func() T
	resource     string
	defaultLimit int
	logger       logger.Logger
}

func NewEntityController[T models.Entity](service services.EntityServiceInterface[T], newEntity func() T, resource string, cfg *models.Config, log logger.Logger) *EntityController[T] {
	defaultLimit := cfg.PaginationDefaultLimit
	if defaultLimit == 0 {
		defaultLimit = 10
	}
	return &EntityController[T]{
		service:      service,
		newEntity:    newEntity,
		resource:     resource,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// RegisterRoutes mounts the resource routes on rg
func (h *EntityController[T]) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/" + h.resource)
	group.GET("", h.List)
	group.POST("/filter", h.Filter)
	group.GET("/search", h.Search)
	group.GET("/name/:name", h.GetByName)
	group.GET("/:id", h.Get)
	group.POST("", h.Create)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List handles GET /{resource}
// @Summary List records page by page
// @Tags Entities
// @Produce json
// @Param limit query int false "Page size (1-100)"
// @Param status query string false "Restrict to one status"
// @Param direction query string false "next or prev"
// @Param cursorPointer query string false "Cursor returned by the previous page"
// @Success 200 {object} models.Page[any]
// @Failure 400 {object} models.APIResponse
// @Router /{resource} [get]
func (h *EntityController[T]) List(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	req := models.PageRequest{
		Limit:         limit,
		Direction:     models.Direction(c.Query("direction")),
		CursorPointer: c.Query("cursorPointer"),
	}

	page, err := h.service.List(c.Request.Context(), req, c.Query("status"))
	if err != nil {
		respondError(c, h.logger, "Failed to list "+h.resource, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Filter handles POST /{resource}/filter
// @Summary Page through records matching a filter
// @Tags Entities
// @Accept json
// @Produce json
// @Param request body models.FilterPageRequest true "Filter and page controls"
// @Success 200 {object} models.Page[any]
// @Failure 400 {object} models.APIResponse
// @Router /{resource}/filter [post]
func (h *EntityController[T]) Filter(c *gin.Context) {
	var req models.FilterPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "Invalid request body", models.NewValidationError("body", err.Error()))
		return
	}

	page, err := h.service.Filter(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "Failed to filter "+h.resource, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Search handles GET /{resource}/search?name=
// @Summary Find records whose name contains a fragment
// @Tags Entities
// @Produce json
// @Param name query string true "Name fragment"
// @Success 200 {object} models.APIResponse
// @Router /{resource}/search [get]
func (h *EntityController[T]) Search(c *gin.Context) {
	items, err := h.service.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, h.logger, "Failed to search "+h.resource, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	respondSuccess(c, http.StatusOK, "Search completed", gin.H{"items": items, "count": len(items)})
}

// GetByName handles GET /{resource}/name/{name}
func (h *EntityController[T]) GetByName(c *gin.Context) {
	entity, err := h.service.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.logger, "Failed to get record by name", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Record retrieved successfully", entity)
}

// Get handles GET /{resource}/{id}
func (h *EntityController[T]) Get(c *gin.Context) {
	entity, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Failed to get record", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Record retrieved successfully", entity)
}

// Create handles POST /{resource}
// @Summary Create a record
// @Tags Entities
// @Accept json
// @Produce json
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /{resource} [post]
func (h *EntityController[T]) Create(c *gin.Context) {
	entity := h.newEntity()
	if err := c.ShouldBindJSON(entity); err != nil {
		respondError(c, h.logger, "Invalid request body", models.NewValidationError("body", err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), entity, c.GetHeader(actorHeader))
	if err != nil {
		respondError(c, h.logger, "Failed to create record", err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Record created successfully", created)
}

// Update handles PUT /{resource}/{id} with a JSON merge patch body
// @Summary Update a record
// @Tags Entities
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /{resource}/{id} [put]
func (h *EntityController[T]) Update(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, h.logger, "Invalid request body", models.NewValidationError("body", err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), patch, c.GetHeader(actorHeader))
	if err != nil {
		respondError(c, h.logger, "Failed to update record", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Record updated successfully", updated)
}

// Delete handles DELETE /{resource}/{id}; ?hard=true removes the record
// @Summary Delete a record
// @Tags Entities
// @Produce json
// @Param hard query bool false "Remove instead of marking deleted"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /{resource}/{id} [delete]
func (h *EntityController[T]) Delete(c *gin.Context) {
	hard, err := strconv.ParseBool(c.DefaultQuery("hard", "false"))
	if err != nil {
		respondError(c, h.logger, "Invalid hard flag", models.NewValidationError("hard", "hard must be true or false"))
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), c.Param("id"), hard, c.GetHeader(actorHeader))
	if err != nil {
		respondError(c, h.logger, "Failed to delete record", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Record deleted successfully", deleted)
}

// limit reads the limit query parameter. A missing value uses the default;
// range checks are left to the access layer.
func (h *EntityController[T]) limit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return h.defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, h.logger, "Invalid limit", models.NewValidationError("limit", "limit must be an integer"))
		return 0, false
	}
	return limit, true
}
