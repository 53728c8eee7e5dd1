package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

type roomAPI struct {
	coord core.RoomCoordinator
}

type createRoomRequest struct {
	ID               string `json:"id" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	LinkedResourceID string `json:"linked_resource_id"`
	MaxParticipants  int    `json:"max_participants"`
}

type roomItem struct {
	domain.Room
	ParticipantCount int `json:"participant_count"`
}

func (a *roomAPI) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid room fields"})
		return
	}

	room, err := a.coord.CreateRoom(core.RoomConfig{
		ID:               domain.RoomID(req.ID),
		Name:             req.Name,
		Description:      req.Description,
		LinkedResourceID: req.LinkedResourceID,
		MaxParticipants:  req.MaxParticipants,
	})
	if errors.Is(err, core.ErrRoomExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "room already exists"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.httpapi").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, roomItem{Room: room})
}

func (a *roomAPI) list(c *gin.Context) {
	rooms := a.coord.ListRooms()
	items := make([]roomItem, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, roomItem{
			Room:             room,
			ParticipantCount: len(a.coord.Participants(room.ID)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (a *roomAPI) get(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	room, ok := a.coord.GetRoom(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, roomItem{
		Room:             room,
		ParticipantCount: len(a.coord.Participants(id)),
	})
}

func (a *roomAPI) remove(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	if !a.coord.DeleteRoom(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *roomAPI) participants(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	if _, ok := a.coord.GetRoom(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	ps := a.coord.Participants(id)
	c.JSON(http.StatusOK, gin.H{"items": ps})
}
