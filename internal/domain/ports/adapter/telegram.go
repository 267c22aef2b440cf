package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ChatAdapter is everything the use cases need from the chat transport.
type ChatAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	// EditButtons replaces text and keyboard of an already sent message.
	EditButtons(ctx context.Context, chatID int64, messageID int, text string, rows [][]InlineButton) error
	// RequestLocation shows a one-time reply keyboard with a location button.
	RequestLocation(ctx context.Context, chatID int64, text, buttonLabel string) error
	// AnswerCallback stops the client spinner; alert shows text as a popup.
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}
