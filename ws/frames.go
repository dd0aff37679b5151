package ws

import "encoding/json"

// postFrame is the outbound envelope for request traffic. The server
// echoes the id back on the matching response.
type postFrame struct {
	Method  string      `json:"method"`
	ID      int64       `json:"id"`
	Request postRequest `json:"request"`
}

// postRequest carries the request body. Type selects the endpoint the
// server routes the payload to: "action" for signed exchange payloads,
// "info" for queries.
type postRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// inboundFrame is the envelope of every server message. Channel tells
// frame kinds apart; Data holds the kind-specific body.
type inboundFrame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// postData is the body of a post-channel frame.
type postData struct {
	ID       int64        `json:"id"`
	Response postResponse `json:"response"`
}

// postResponse carries the response payload. Type mirrors the request
// type on success and is "error" when the server rejected the request,
// in which case Payload holds a quoted string describing the failure.
type postResponse struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
