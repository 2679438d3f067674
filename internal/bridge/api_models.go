package bridge

import (
	"encoding/json"

	"github.com/raysh454/hybridhttp/internal/model"
)

// SetCookieOptions is the payload of setCookie.
type SetCookieOptions struct {
	Key   string `json:"key" example:"session"`
	Value string `json:"value" example:"abc123"`
	model.HttpCookieOptions
}

// CookieKeyOptions is the payload of getCookie and deleteCookie.
type CookieKeyOptions struct {
	Key string `json:"key" example:"session"`
}

// CallMessage is one plugin invocation sent over the WebSocket channel.
type CallMessage struct {
	CallbackID string          `json:"callbackId,omitempty" example:"7"`
	MethodName string          `json:"methodName" example:"get"`
	Options    json.RawMessage `json:"options,omitempty" swaggertype:"object"`
}

// ResultMessage answers a CallMessage with the same callback id.
type ResultMessage struct {
	CallbackID string `json:"callbackId"`
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

// MethodsResponse lists callable plugin methods.
type MethodsResponse struct {
	Plugin  string   `json:"plugin" example:"Http"`
	Methods []string `json:"methods" example:"get,post,getCookies"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"unknown plugin method"`
}
