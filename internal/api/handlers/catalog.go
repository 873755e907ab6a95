package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playvault/game-request-api/internal/igdb"
)

// CatalogHandler proxies search and detail lookups to the catalog API.
type CatalogHandler struct {
	client *igdb.Client
}

func NewCatalogHandler(client *igdb.Client) *CatalogHandler {
	return &CatalogHandler{client: client}
}

// SearchGames godoc
// @Summary Search the catalog
// @Description Name search over the catalog, PC releases with cover art only
// @Tags catalog
// @Produce json
// @Param q query string true "Search term"
// @Param limit query int false "Maximum games returned" default(20)
// @Success 200 {array} models.GameSummary
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/games/search [get]
func (h *CatalogHandler) SearchGames(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term is required"})
		return
	}

	games, err := h.client.SearchGames(c.Request.Context(), term, queryInt(c, "limit", 20))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// GameDetail godoc
// @Summary Game detail
// @Description Full catalog document for one game, similar games resolved inline
// @Tags catalog
// @Produce json
// @Param id path int true "Catalog game id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/games/{id} [get]
func (h *CatalogHandler) GameDetail(c *gin.Context) {
	gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || gameID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game id"})
		return
	}

	detail, err := h.client.GameDetail(c.Request.Context(), gameID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
