package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"study-highlights/internal/domain"
	apperrors "study-highlights/pkg/errors"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// GetTokenFromContext extracts the authentication token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}

func withUserAndToken(r *http.Request, user *domain.SupabaseUser, token string) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return r.WithContext(ctx)
}

// requestIdentity returns the caller and bearer token placed in the context
// by AuthMiddleware, writing a 401 when either is missing.
func requestIdentity(w http.ResponseWriter, r *http.Request) (*domain.SupabaseUser, string, bool) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return nil, "", false
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return nil, "", false
	}
	return user, token, true
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps err to a status code and logs it. Backend failures
// are logged as errors; rejections the caller can fix are logged as warnings.
func writeServiceError(w http.ResponseWriter, logger domain.Logger, action string, err error, fields ...interface{}) {
	appErr := apperrors.FromError(action, err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Failed to "+action, err, fields...)
	} else {
		logger.Warn("Rejected "+action, append(fields, "error", err)...)
	}

	body := map[string]string{"error": appErr.Message, "type": string(appErr.Type)}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	writeJSON(w, appErr.StatusCode, body)
}
