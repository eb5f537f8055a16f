package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"ragbot/internal/rag"
	"ragbot/internal/storage"
	"ragbot/internal/validate"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"success": false,
		"error":   apiErr.Message,
		"code":    apiErr.Code,
	})
}

func logError(op string, err error) {
	log.Printf("%s failed: %v", op, err)
}

type apiError struct {
	Code    string
	Message string
}

// toAPIError maps an error to user-safe text. Raw error strings never reach the client.
func toAPIError(status int, err error) apiError {
	switch {
	case errors.Is(err, rag.ErrProviderNotReady):
		return apiError{Code: "RB-API-5001", Message: msgNotInitialized}
	case errors.Is(err, rag.ErrQueryFailed):
		return apiError{Code: "RB-API-5002", Message: msgQueryFailed}
	case errors.Is(err, storage.ErrNoCorpus):
		return apiError{Code: "RB-API-4002", Message: msgNoCorpus}
	case errors.Is(err, rag.ErrEmptyMessage):
		return apiError{Code: "RB-API-4001", Message: "Message is required."}
	case errors.Is(err, rag.ErrNothingStored):
		return apiError{Code: "RB-API-4003", Message: "No files were uploaded successfully."}
	case errors.Is(err, validate.ErrNoFiles):
		return apiError{Code: "RB-API-4001", Message: "No files were provided. Send documents in the files field."}
	case errors.Is(err, validate.ErrTooManyFiles):
		return apiError{Code: "RB-API-4001", Message: "Too many files in one upload."}
	}

	switch {
	case status >= 500:
		return apiError{Code: "RB-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusNotFound:
		return apiError{Code: "RB-API-4004", Message: "Requested resource was not found."}
	case status == http.StatusMethodNotAllowed:
		return apiError{Code: "RB-API-4005", Message: "This endpoint does not support the requested method."}
	case status == http.StatusRequestEntityTooLarge:
		return apiError{Code: "RB-API-4013", Message: "Upload is too large."}
	case status == http.StatusBadRequest:
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return apiError{Code: "RB-API-4001", Message: "Malformed JSON request body."}
		}
		return apiError{Code: "RB-API-4001", Message: "Invalid request. Check inputs and retry."}
	default:
		return apiError{Code: "RB-API-4000", Message: "Request failed."}
	}
}
