// Package httputil provides the JSON and middleware helpers of the ops HTTP
// server.
//
// # Responses
//
//	httputil.WriteJSON(w, http.StatusOK, result)
//	httputil.WriteError(w, http.StatusBadRequest, "trigger type is required")
//	httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error(), fields...)
//
// # Requests
//
//	var t events.Trigger
//	if !httputil.DecodeJSON(w, r, &t) {
//		return
//	}
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
package httputil
