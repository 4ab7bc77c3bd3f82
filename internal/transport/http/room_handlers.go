package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/proto"
	"github.com/vovakirdan/coderooms-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room endpoints.
type RoomHandlers struct {
	board *core.Board
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(board *core.Board, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		board: board,
		log:   logger,
	}
}

func toRoom(room *store.Room) proto.Room {
	return proto.Room{
		ID:        room.ID,
		Name:      room.Name,
		Slug:      room.Slug,
		CreatedAt: room.CreatedAt,
	}
}

// Health reports liveness and storage reachability.
// GET /api/health
func (h *RoomHandlers) Health(c *gin.Context) {
	if err := h.board.Health(c.Request.Context()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, proto.Health{OK: true, APIVersion: proto.APIVersion})
}

// CreateRoom returns the room for the given name, creating it if needed.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req proto.CreateRoom
	if err := c.ShouldBindJSON(&req); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, proto.Error{Error: "request body too large", Code: errCodeBadRequest})
			return
		}
		h.log.Debug().Err(err).Msg("invalid create room request")
		badRequest(c, "invalid request body")
		return
	}

	room, err := h.board.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Debug().Str("room_id", room.ID).Str("slug", room.Slug).Msg("room resolved")
	c.JSON(http.StatusOK, toRoom(room))
}

// ListRooms lists every room sorted by name.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.board.Rooms(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	response := make([]proto.Room, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, toRoom(room))
	}
	c.JSON(http.StatusOK, response)
}

// GetRoom resolves a single room by id or slug.
// GET /api/rooms/:room
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, err := h.board.Room(c.Request.Context(), c.Param("room"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRoom(room))
}
