package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ClientError is a 4xx rejection. When the body carries the exchange's
// structured error shape, Code/Msg/Data hold its fields; otherwise Msg is
// the raw body.
type ClientError struct {
	StatusCode int64
	Code       string
	Msg        string
	Headers    http.Header
	Data       any
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error (status %d): %s", e.StatusCode, e.Msg)
}

// ServerError is a 5xx failure.
type ServerError struct {
	StatusCode int64
	Text       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Text)
}

type errorResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func handleException(resp *resty.Response) error {
	statusCode := int64(resp.StatusCode())

	if statusCode < 400 {
		return nil
	}

	if statusCode >= 500 {
		return &ServerError{
			StatusCode: statusCode,
			Text:       string(resp.Body()),
		}
	}

	var errResp errorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err != nil ||
		(errResp.Code == "" && errResp.Msg == "") {
		return &ClientError{
			StatusCode: statusCode,
			Msg:        string(resp.Body()),
			Headers:    resp.Header(),
		}
	}

	return &ClientError{
		StatusCode: statusCode,
		Code:       errResp.Code,
		Msg:        errResp.Msg,
		Headers:    resp.Header(),
		Data:       errResp.Data,
	}
}
