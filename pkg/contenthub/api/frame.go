package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Frame webhook error codes.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeUnsupportedAction = "UNSUPPORTED_ACTION"
)

// Frame actions acknowledged by FrameWebhook.
const (
	FrameButtonClick = "buttonClick"
	FrameTextInput   = "textInput"
	FrameURLUpload   = "urlUpload"
)

// FramePayload is the body a Farcaster frame posts to /frame-webhooks.
type FramePayload struct {
	FrameAction string       `json:"frameAction"`
	FrameURL    string       `json:"frameUrl,omitempty"`
	ButtonIndex int          `json:"buttonIndex,omitempty"`
	InputText   string       `json:"inputText,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	TrustedData *TrustedData `json:"trustedData"`
}

// TrustedData carries the signed frame message.
type TrustedData struct {
	MessageBytes string `json:"messageBytes"`
	FID          any    `json:"fid,omitempty"`
}

// FrameAck acknowledges a frame action.
type FrameAck struct {
	Message     string `json:"message"`
	Action      string `json:"action"`
	ButtonIndex *int   `json:"buttonIndex,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// FrameWebhook validates a frame action and acknowledges it. Only POST is
// accepted.
func (h *Handler) FrameWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondError(w, r, http.StatusMethodNotAllowed, "", "Method not allowed")
		return
	}

	var p FramePayload
	if err := render.DecodeJSON(r.Body, &p); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON in request body")
		return
	}
	if p.FrameAction == "" || p.TrustedData == nil || p.TrustedData.MessageBytes == "" {
		respondError(w, r, http.StatusBadRequest, CodeInvalidPayload, "Missing required fields in Frame payload")
		return
	}

	ack := FrameAck{Action: p.FrameAction, Timestamp: timestamp()}
	log := h.logger.With("action", p.FrameAction, "fid", p.TrustedData.FID, "frame_url", p.FrameURL, "request_id", RequestID(r.Context()))
	switch p.FrameAction {
	case FrameButtonClick:
		log.InfoContext(r.Context(), "Frame button clicked", "button", p.ButtonIndex)
		ack.Message = "Button click processed successfully"
		ack.ButtonIndex = &p.ButtonIndex
	case FrameTextInput:
		log.InfoContext(r.Context(), "Frame text submitted", "text", p.InputText)
		ack.Message = "Text input processed successfully"
	case FrameURLUpload:
		log.InfoContext(r.Context(), "Frame URL uploaded", "url", p.ImageURL)
		ack.Message = "URL upload processed successfully"
	default:
		respondError(w, r, http.StatusBadRequest, CodeUnsupportedAction, fmt.Sprintf("Unsupported frame action: %s", p.FrameAction))
		return
	}
	respond(w, r, ack)
}
