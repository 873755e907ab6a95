package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playvault/game-request-api/internal/igdb"
)

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// respondCatalogError maps catalog client failures to HTTP statuses. An
// unreachable upstream is the caller's 502, not our 500.
func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, igdb.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
	case errors.Is(err, igdb.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catalog service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
