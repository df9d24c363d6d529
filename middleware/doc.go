/*
Package middleware provides HTTP helpers shared by all handlers.

  - WithLogging: request start/completion logging via slog
  - JSONResponse / ErrorResponse: JSON writers
  - ParseJSONBody: request body decoding
  - CORS: cross-origin headers for the hall front-ends
*/
package middleware
