// Package transport abstracts the chat surface the bot talks through.
// The pipeline only ever sends, edits, and deletes messages; the concrete
// chat backend stays out of the core.
package transport

// MessageRef identifies a sent message so it can be edited in place.
type MessageRef struct {
	Chat int64
	ID   int64
}

// Zero reports whether the ref points at no message.
func (m MessageRef) Zero() bool {
	return m.Chat == 0 && m.ID == 0
}

// IncomingFile is a document attached to an incoming update, already
// materialised on local disk.
type IncomingFile struct {
	Name string
	Path string
}

// Update is one incoming chat event.
type Update struct {
	Owner    int64  // sender chat id
	Text     string // message text, commands included
	ReplyTo  string // text of the replied-to message, if any
	Callback string // inline-button callback data, if any
	Document *IncomingFile
}

// Transport is the chat backend. Implementations must be safe for
// concurrent use: the worker, fanouts, and the reporter all send.
type Transport interface {
	Send(chat int64, text string) (MessageRef, error)
	Edit(ref MessageRef, text string) error
	Delete(ref MessageRef) error
	SendDocument(chat int64, path, caption string) error
	SendVideo(chat int64, path string, width, height int, duration float64, caption string) error
	Updates() <-chan Update
}
