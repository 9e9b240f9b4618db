// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, stats)
//	httputil.WriteCreated(w, resource)
//
// Error responses:
//
//	httputil.WriteAppError(w, err) // maps apperr kinds to HTTP statuses
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteForbidden(w, "Not allowed")
//	httputil.WriteTooManyRequests(w, "Slow down")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req startRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters:
//
//	email, ok := httputil.ParsePathStringOrError(w, r, "email")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware,
//		httputil.MaxBytesMiddleware(1024*1024), // 1MB
//	)
//
// # Related Packages
//
//   - pkg/middleware: Redis-backed submission rate limiting
package httputil
