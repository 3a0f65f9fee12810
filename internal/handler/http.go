package handler

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bwmarrin/discordgo"
)

// maxBodySize bounds interaction payloads.
const maxBodySize = 1 << 20

// ServeHTTP answers interactions posted to the endpoint configured in the
// Discord developer portal.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, body := h.serve(r)
	if body != nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if body != nil {
		w.Write(body)
	}
}

// HandleAPIGateway adapts an API Gateway v2 (or function URL) request.
func (h *Handler) HandleAPIGateway(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest}, nil
		}
		body = decoded
	}

	method := req.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodPost
	}
	r, err := http.NewRequestWithContext(ctx, method, "/", bytes.NewReader(body))
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	status, out := h.serve(r)
	resp := events.APIGatewayV2HTTPResponse{StatusCode: status}
	if out != nil {
		resp.Headers = map[string]string{"Content-Type": "application/json"}
		resp.Body = string(out)
	}
	return resp, nil
}

// serve verifies and answers one interaction request.
func (h *Handler) serve(r *http.Request) (int, []byte) {
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, nil
	}

	r.Body = io.NopCloser(io.LimitReader(r.Body, maxBodySize))
	if len(h.publicKey) != ed25519.PublicKeySize || !discordgo.VerifyInteraction(r, h.publicKey) {
		h.logger.Warn("rejected interaction with invalid signature")
		return http.StatusUnauthorized, jsonError("invalid request signature")
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return http.StatusBadRequest, jsonError("failed to read body")
	}

	var interaction discordgo.Interaction
	if err := json.Unmarshal(data, &interaction); err != nil {
		h.logger.Warn("failed to decode interaction", "error", err)
		return http.StatusBadRequest, jsonError("invalid interaction")
	}

	resp := h.HandleInteraction(r.Context(), &interaction)
	if resp == nil {
		return http.StatusBadRequest, jsonError("unsupported interaction type")
	}

	out, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode response", "error", err)
		return http.StatusInternalServerError, nil
	}
	return http.StatusOK, out
}

func jsonError(msg string) []byte {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return out
}
