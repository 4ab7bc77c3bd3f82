// Package proto holds the JSON wire types of the HTTP API, shared by the
// server and its clients.
package proto

// APIVersion is bumped on incompatible wire changes.
const APIVersion = 1

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateRoom requests a room by display name.
type CreateRoom struct {
	Name string `json:"name"`
}

// Room is a room as returned by the API.
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt int64  `json:"created_at"`
}

// PostMessage is the post body. Text, User and Lang are legacy aliases; the
// canonical field wins when both are sent.
type PostMessage struct {
	Author   *string `json:"author,omitempty"`
	Caption  *string `json:"caption,omitempty"`
	Language *string `json:"language,omitempty"`
	Code     *string `json:"code,omitempty"`

	Text *string `json:"text,omitempty"`
	User *string `json:"user,omitempty"`
	Lang *string `json:"lang,omitempty"`
}

// Message is a message as returned by read endpoints. It never carries the
// origin fingerprint.
type Message struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	Author    string `json:"author"`
	Caption   string `json:"caption"`
	Language  string `json:"language"`
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"`
}

// PostAck acknowledges a stored message.
type PostAck struct {
	OK        bool   `json:"ok"`
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// DeleteResult reports how many messages were removed.
type DeleteResult struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

// Trace is a message with its origin fingerprint, for moderators.
type Trace struct {
	Message
	OriginHash string `json:"origin_hash"`
}

// Health is the liveness response.
type Health struct {
	OK         bool `json:"ok"`
	APIVersion int  `json:"api_version"`
}
