package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

const maxBodyBytes = 1 << 20

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	users  UserRepo
	trips  TripRepo
	places PlacesService
	tokens TokenIssuer
	log    *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(users UserRepo, trips TripRepo, places PlacesService, tokens TokenIssuer, log *slog.Logger) *Handlers {
	return &Handlers{
		users:  users,
		trips:  trips,
		places: places,
		tokens: tokens,
		log:    log,
	}
}

// dataResponse is the {"data": ...} envelope of every successful JSON answer.
type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Message string                 `json:"message"`
	Errors  []itinerary.FieldError `json:"errors,omitempty"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, fields []itinerary.FieldError) {
	writeJSON(w, status, errorResponse{Message: message, Errors: fields})
}

// writeValidation answers 422 when err is a ValidationError and reports whether it did.
func writeValidation(w http.ResponseWriter, err error) bool {
	var verr itinerary.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeError(w, http.StatusUnprocessableEntity, verr[0].Message, verr)
	return true
}

// decodeJSON reads a size-limited JSON body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return false
	}
	return true
}

func (h *Handlers) internalError(w http.ResponseWriter, msg string, args ...any) {
	h.log.Error(msg, args...)
	writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.", nil)
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc handles GET /api/health.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
