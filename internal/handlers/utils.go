package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/pharmadoc/internal/adapter"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone already
		logger_i.NewLogger("RequestHandler").Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(message, httpCode))
}

// writeError maps a pipeline error onto its status code.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	res := adapter.FromError(err)
	h.logger.FromContext(ctx).Warn("Request failed", "code", res.Error.Code, "kind", res.Kind, "error", err)
	writeJsonResponse(w, res.Error.Code, res)
}

func (h *Handler) validateContext(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		h.logger.FromContext(ctx).Warn("context error", "error", err)
		return false
	}
	return true
}

func getTargetDirectory(root string) (string, error) {
	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
