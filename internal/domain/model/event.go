package model

// Event is an inbound chat event. It is one of MessageEvent, CallbackEvent
// or LocationEvent; consumers switch on the concrete type.
type Event interface {
	// User returns the sender id, or 0 when the event has no user.
	User() int64
	// Chat returns the chat replies go to.
	Chat() int64
	Kind() string
	isEvent()
}

type MessageEvent struct {
	UserID    int64
	ChatID    int64
	MessageID int
	Text      string
}

type CallbackEvent struct {
	UserID     int64
	ChatID     int64
	MessageID  int
	CallbackID string
	Data       string
}

type LocationEvent struct {
	UserID    int64
	ChatID    int64
	Latitude  float64
	Longitude float64
}

func (e MessageEvent) User() int64  { return e.UserID }
func (e MessageEvent) Chat() int64  { return e.ChatID }
func (e MessageEvent) Kind() string { return "message" }
func (MessageEvent) isEvent()       {}

func (e CallbackEvent) User() int64  { return e.UserID }
func (e CallbackEvent) Chat() int64  { return e.ChatID }
func (e CallbackEvent) Kind() string { return "callback" }
func (CallbackEvent) isEvent()       {}

func (e LocationEvent) User() int64  { return e.UserID }
func (e LocationEvent) Chat() int64  { return e.ChatID }
func (e LocationEvent) Kind() string { return "location" }
func (LocationEvent) isEvent()       {}
