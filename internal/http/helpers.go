package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pagebuilder/internal/auth"
	templatescmd "github.com/goliatone/go-pagebuilder/internal/commands/templates"
)

type errorResponse struct {
	Error   string                `json:"error"`
	Code    string                `json:"code,omitempty"`
	Details string                `json:"details,omitempty"`
	Issues  []goerrors.FieldError `json:"issues,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
	}

	if errors.Is(err, auth.ErrPermissionDenied) {
		return http.StatusForbidden, errorResponse{
			Error:   "Forbidden",
			Details: err.Error(),
		}
	}

	var rich *goerrors.Error
	if !errors.As(err, &rich) {
		err = templatescmd.Classify(err)
		if !errors.As(err, &rich) {
			return http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()}
		}
	}

	payload := errorResponse{
		Error:  rich.Message,
		Code:   rich.TextCode,
		Issues: rich.ValidationErrors,
	}
	if cause := goerrors.RootCause(err); cause != nil && cause.Error() != rich.Message {
		payload.Details = cause.Error()
	}

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest, payload
	case goerrors.CategoryNotFound:
		return http.StatusNotFound, payload
	case goerrors.CategoryConflict:
		return http.StatusConflict, payload
	case goerrors.CategoryAuthz:
		return http.StatusForbidden, payload
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized, payload
	default:
		return http.StatusInternalServerError, payload
	}
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func requirePermission(w http.ResponseWriter, r *http.Request, permission string) bool {
	if strings.TrimSpace(permission) == "" {
		return true
	}
	if r == nil {
		writeBadRequest(w, "request missing")
		return false
	}
	if err := auth.Require(r.Context(), permission); err != nil {
		writeError(w, err)
		return false
	}
	return true
}
