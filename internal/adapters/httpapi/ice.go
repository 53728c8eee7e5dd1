package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/nicksbar/YAHAML-sub001/internal/config"
)

// iceServers hands clients the ICE servers for their PeerConnections. The
// server never opens one itself; negotiation payloads only pass through the
// relay.
func iceServers(cfg *config.Config) gin.HandlerFunc {
	servers := []webrtc.ICEServer{}
	if len(cfg.ICEServers) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: cfg.ICEServers})
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ice_servers": servers})
	}
}
