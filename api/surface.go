package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pinhome/adapters/mapview"
	"pinhome/adapters/session"
)

// Record a marker click
// (POST /api/surface/marker-click)
func (impl *ServerImpl) PostSurfaceMarkerClick(c *gin.Context) {
	const op = "PostSurfaceMarkerClick"
	sess, err := session.GetSession(c)
	if err != nil {
		slog.Error("Fail to get session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	mapview.NewSurface(sess).MarkerClick()
	if err := sess.Save(); err != nil {
		slog.Error("Fail to save session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Interpret a map click
// (POST /api/surface/map-click)
func (impl *ServerImpl) PostSurfaceMapClick(c *gin.Context) {
	const op = "PostSurfaceMapClick"
	var body struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid click payload"})
		return
	}
	sess, err := session.GetSession(c)
	if err != nil {
		slog.Error("Fail to get session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	action := mapview.NewSurface(sess).MapClick(body.Lat, body.Lng)
	if err := sess.Save(); err != nil {
		slog.Error("Fail to save session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, action)
}
