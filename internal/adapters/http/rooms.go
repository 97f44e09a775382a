package http

import (
	"net/http"

	"github.com/dkeye/StudySync/internal/app/orch"
	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/gin-gonic/gin"
)

type roomsAPI struct {
	orch *orch.Orchestrator
}

type roomResponse struct {
	ID      domain.RoomID    `json:"id"`
	Members core.Snapshot    `json:"members"`
	Chat    []core.ChatEntry `json:"chat"`
}

// GET /api/rooms
func (a *roomsAPI) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": a.orch.Rooms.List()})
}

// GET /api/rooms/:id returns the same snapshot and history a joining member
// would receive. Reading never creates the room.
func (a *roomsAPI) get(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	room, ok := a.orch.Rooms.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, roomResponse{
		ID:      id,
		Members: room.MembersSnapshot(),
		Chat:    core.ChatEntries(room.ChatSnapshot()),
	})
}
