package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"bess-roi/internal/api/models"
	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

// ClientHandler serves the client presets and consumption profiles.
type ClientHandler struct {
	clients map[string]model.ClientParams
	table   *profile.Table
}

// NewClientHandler creates a new client handler
func NewClientHandler(clients map[string]model.ClientParams, table *profile.Table) *ClientHandler {
	return &ClientHandler{
		clients: clients,
		table:   table,
	}
}

// ListClients handles GET /api/v1/clients
func (h *ClientHandler) ListClients(c *gin.Context) {
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	clients := make([]models.ClientInfo, 0, len(ids))
	for _, id := range ids {
		clients = append(clients, models.ClientInfo{ID: id, Client: h.clients[id]})
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// ListProfiles handles GET /api/v1/profiles
func (h *ClientHandler) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.table.Names()})
}
