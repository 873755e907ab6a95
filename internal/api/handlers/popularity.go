package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playvault/game-request-api/internal/constants"
	"github.com/playvault/game-request-api/internal/popularity"
)

// PopularityHandler serves the cached ranked game lists.
type PopularityHandler struct {
	service *popularity.Service
}

func NewPopularityHandler(service *popularity.Service) *PopularityHandler {
	return &PopularityHandler{service: service}
}

// RecentPopular godoc
// @Summary Popular recent releases
// @Description Weighted popularity leaderboard limited to games released in the last year
// @Tags popularity
// @Produce json
// @Param limit query int false "Maximum games returned" default(100)
// @Success 200 {array} models.RankedGame
// @Failure 502 {object} map[string]string
// @Router /api/v1/popular/recent [get]
func (h *PopularityHandler) RecentPopular(c *gin.Context) {
	games, err := h.service.RecentPopular(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// CustomTop100 godoc
// @Summary All-time top 100
// @Description Weighted all-time popularity leaderboard
// @Tags popularity
// @Produce json
// @Param limit query int false "Maximum games returned" default(100)
// @Success 200 {array} models.RankedGame
// @Failure 502 {object} map[string]string
// @Router /api/v1/popular/top100 [get]
func (h *PopularityHandler) CustomTop100(c *gin.Context) {
	games, err := h.service.CustomTop100(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// PopularByType godoc
// @Summary Single-metric leaderboard
// @Description Games ranked by one raw popularity metric, defaulting to the configured metric
// @Tags popularity
// @Produce json
// @Param type query int false "Popularity metric type"
// @Param limit query int false "Maximum games returned" default(100)
// @Success 200 {array} models.RankedGame
// @Failure 502 {object} map[string]string
// @Router /api/v1/popular/by-type [get]
func (h *PopularityHandler) PopularByType(c *gin.Context) {
	games, err := h.service.PopularByType(c.Request.Context(),
		queryInt(c, "type", 0), queryInt(c, "limit", 100))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// GenreList godoc
// @Summary Best games of a genre
// @Description Best rated games of one genre, upstream rating order, no weighting
// @Tags popularity
// @Produce json
// @Param id path int true "Genre id"
// @Param min_rating query int false "Minimum total rating count" default(10)
// @Param limit query int false "Maximum games returned" default(100)
// @Success 200 {array} models.GameSummary
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/genres/{id}/games [get]
func (h *PopularityHandler) GenreList(c *gin.Context) {
	genreID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || genreID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genre id"})
		return
	}
	if _, known := constants.GenreName(genreID); !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown genre id"})
		return
	}

	games, err := h.service.GenreList(c.Request.Context(), genreID,
		queryInt(c, "min_rating", 10), queryInt(c, "limit", 100))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}
