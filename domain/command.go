package domain

// SendMessageCommand is a text-only sending intent received on the socket channel.
type SendMessageCommand struct {
	ChatID        ChatID
	SenderID      string
	Content       string
	CorrelationID string
}

// Attachment is one uploaded file, held in memory until the object store accepts it.
type Attachment struct {
	Filename string
	Data     []byte
}

// SendAttachmentCommand is an attachment-bearing sending intent received over HTTP.
// Content is an optional caption.
type SendAttachmentCommand struct {
	ChatID        ChatID
	SenderID      string
	Content       string
	CorrelationID string
	Files         []Attachment
}

// HistoryQuery asks for one page of a chat's history. Pages are 1-based,
// page 1 holding the most recent slice.
type HistoryQuery struct {
	ChatID      ChatID
	RequesterID string
	Page        int
}
