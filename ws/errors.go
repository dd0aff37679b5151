package ws

import (
	"errors"
	"fmt"
)

// ErrNotStarted is returned for posts issued before Start has dialed the
// connection.
var ErrNotStarted = errors.New("websocket client not started")

// ErrClosed is returned for posts issued or still in flight once the
// connection is gone, whether by Stop or by a transport failure. The
// failure cause, when there is one, rides in the message.
var ErrClosed = errors.New("websocket client closed")

// PostError is a rejection the server sent back on the post channel. The
// wrapped payload never reached the target endpoint's handler.
type PostError struct {
	ID      int64
	Message string
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post %d rejected: %s", e.ID, e.Message)
}
