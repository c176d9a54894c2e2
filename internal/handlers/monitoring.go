package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sanarkk/book-management-system-api/internal/monitoring"
)

var (
	monitoringService *monitoring.Service
	monitoringToken   string
)

// SetMonitoring wires the monitoring service and its access token into the
// handlers package.
func SetMonitoring(service *monitoring.Service, token string) {
	monitoringService = service
	monitoringToken = token
}

func checkMonitoringToken(c *gin.Context) bool {
	if monitoringService == nil || monitoringToken == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Monitoring is disabled"})
		return false
	}

	provided := strings.TrimSpace(c.Query("token"))
	if provided == "" {
		provided = strings.TrimSpace(c.GetHeader("X-Monitoring-Token"))
	}

	if subtle.ConstantTimeCompare([]byte(provided), []byte(monitoringToken)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid monitoring token"})
		return false
	}

	return true
}

func MonitorStatus(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.String(http.StatusOK, monitoringService.StatusText())
}

func MonitorSnapshot(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, monitoringService.CollectSnapshot())
}
