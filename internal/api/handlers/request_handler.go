package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	middlewares "github.com/playvault/game-request-api/internal/middleware"
	"github.com/playvault/game-request-api/internal/models"
	"github.com/playvault/game-request-api/internal/requests"
)

// RequestHandler exposes the game request lifecycle to users.
type RequestHandler struct {
	service   *requests.Service
	validator *validator.Validate
}

func NewRequestHandler(service *requests.Service) *RequestHandler {
	return &RequestHandler{
		service:   service,
		validator: validator.New(),
	}
}

func respondRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, requests.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
	case errors.Is(err, requests.ErrLimitReached):
		c.JSON(http.StatusConflict, gin.H{"error": "Active request limit reached"})
	case errors.Is(err, requests.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a request for this game"})
	case errors.Is(err, requests.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request status"})
	case errors.Is(err, requests.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Create godoc
// @Summary Open a game request
// @Description Creates a request for a game to be added to the library
// @Tags requests
// @Accept json
// @Produce json
// @Param request body models.GameRequestCreate true "Request payload"
// @Success 201 {object} models.GameRequest
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var payload models.GameRequestCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: " + err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), middlewares.GetUser(c), payload)
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary List requests
// @Description Lists game requests. Non-admins see only their own.
// @Tags requests
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, approved, rejected, completed)
// @Success 200 {array} models.GameRequest
// @Failure 400 {object} map[string]string
// @Router /api/v1/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	requester := middlewares.GetUser(c)
	if middlewares.IsAdmin(c) {
		// Admins may look at everyone's requests.
		requester = c.Query("requester")
	}

	list, err := h.service.List(c.Request.Context(),
		models.RequestStatus(c.Query("status")), requester)
	if err != nil {
		respondRequestError(c, err)
		return
	}
	if list == nil {
		list = []models.GameRequest{}
	}
	c.JSON(http.StatusOK, list)
}

// Get godoc
// @Summary Get one request
// @Tags requests
// @Produce json
// @Param id path string true "Request public id"
// @Success 200 {object} models.GameRequest
// @Failure 404 {object} map[string]string
// @Router /api/v1/requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondRequestError(c, err)
		return
	}
	if !middlewares.IsAdmin(c) && request.Requester != middlewares.GetUser(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	c.JSON(http.StatusOK, request)
}

// Update godoc
// @Summary Update a request
// @Description Admin-only status and notes changes
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request public id"
// @Param update body models.GameRequestUpdate true "Fields to change"
// @Success 200 {object} models.GameRequest
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/requests/{id} [patch]
func (h *RequestHandler) Update(c *gin.Context) {
	var payload models.GameRequestUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"),
		middlewares.GetUser(c), payload)
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a request
// @Description Requesters may delete their own pending requests; admins any
// @Tags requests
// @Produce json
// @Param id path string true "Request public id"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), c.Param("id"),
		middlewares.GetUser(c), middlewares.IsAdmin(c))
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GameStatus godoc
// @Summary Request status of a catalog game
// @Description Tells the frontend whether the game can be requested by the caller
// @Tags requests
// @Produce json
// @Param gameId path int true "Catalog game id"
// @Success 200 {object} models.RequestGameStatus
// @Failure 400 {object} map[string]string
// @Router /api/v1/requests/game-status/{gameId} [get]
func (h *RequestHandler) GameStatus(c *gin.Context) {
	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil || gameID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game id"})
		return
	}

	status, err := h.service.GameStatus(c.Request.Context(), middlewares.GetUser(c), gameID)
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
