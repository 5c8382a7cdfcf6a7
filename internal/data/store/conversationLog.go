package store

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
)

func validateAppend(sessionId string, role chatModel.Role) error {
	if strings.TrimSpace(sessionId) == "" {
		return ragErrors.InvalidInput("session id is required")
	}
	if !role.Valid() {
		return ragErrors.InvalidInput("unknown message role", goerr.V("role", role))
	}
	return nil
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return config.DefaultHistoryLimit
	}
	return limit
}
