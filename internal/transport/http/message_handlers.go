package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/proto"
	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/trace"
)

// MessageHandlers provides HTTP handlers for message endpoints.
type MessageHandlers struct {
	board *core.Board
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(board *core.Board, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		board: board,
		log:   logger,
	}
}

func toPost(r proto.PostMessage) core.Post {
	return core.Post{
		Author:   pick(r.Author, r.User),
		Caption:  pick(r.Caption, nil),
		Language: pick(r.Language, r.Lang),
		Code:     pick(r.Code, r.Text),
	}
}

func pick(canonical, alias *string) string {
	if canonical != nil {
		return *canonical
	}
	if alias != nil {
		return *alias
	}
	return ""
}

func toMessage(msg *store.Message) proto.Message {
	return proto.Message{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Author:    msg.Author,
		Caption:   msg.Caption,
		Language:  msg.Language,
		Code:      msg.Code,
		CreatedAt: msg.CreatedAt,
	}
}

// ListMessages returns messages of a room, newest first.
// GET /api/rooms/:room/messages?since=<ms>&limit=<n>
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	var q core.Query

	if raw := c.Query("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "since must be an integer")
			return
		}
		q.Since = since
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		q.Limit = &limit
	}

	msgs, err := h.board.Messages(c.Request.Context(), c.Param("room"), q)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	response := make([]proto.Message, 0, len(msgs))
	for _, msg := range msgs {
		response = append(response, toMessage(msg))
	}
	c.JSON(http.StatusOK, response)
}

// PostMessage appends a message to a room.
// POST /api/rooms/:room/messages
func (h *MessageHandlers) PostMessage(c *gin.Context) {
	var req proto.PostMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, proto.Error{Error: "request body too large", Code: core.ErrCodeCodeTooLarge})
			return
		}
		h.log.Debug().Err(err).Msg("invalid post message request")
		badRequest(c, "invalid request body")
		return
	}

	msg, err := h.board.Post(c.Request.Context(), originOf(c), c.Param("room"), toPost(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, proto.PostAck{OK: true, ID: msg.ID, CreatedAt: msg.CreatedAt})
}

// DeleteMessage removes a message. Requires the admin token.
// DELETE /api/messages/:id
func (h *MessageHandlers) DeleteMessage(c *gin.Context) {
	n, err := h.board.Delete(c.Request.Context(), originOf(c), c.Param("id"), adminToken(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, proto.DeleteResult{OK: true, Deleted: n})
}

// TraceMessage returns a message with its origin fingerprint. Requires the
// admin token.
// GET /api/messages/:id/trace
func (h *MessageHandlers) TraceMessage(c *gin.Context) {
	msg, err := h.board.Inspect(c.Request.Context(), originOf(c), c.Param("id"), adminToken(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, proto.Trace{Message: toMessage(msg), OriginHash: msg.OriginHash})
}

func originOf(c *gin.Context) string {
	return trace.OriginAddress(c.ClientIP())
}

func adminToken(c *gin.Context) string {
	if token := c.GetHeader(HeaderAdminToken); token != "" {
		return token
	}
	return c.Query("token")
}
