package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"server/internal/imagegen"
	"server/internal/infra"
)

// Generator is the slice of the generation client the handlers need.
// Satisfied by *imagegen.Client; tests substitute a stub.
type Generator interface {
	Generate(ctx context.Context, styleDescription string, imageData []byte, generateAngles bool) ([]imagegen.Variation, error)
}

// App bundles the handlers' dependencies. Constructed once in main and
// shared across requests.
type App struct {
	Logger    infra.Logger
	Generator Generator
}

func NewApp(logger infra.Logger, generator Generator) *App {
	return &App{Logger: logger, Generator: generator}
}

// generateResponse is the envelope every API answer uses. On success the
// message is null and variations are non-empty; on failure variations are
// empty and the message says why (or a generic line for internal errors).
type generateResponse struct {
	Success    bool                 `json:"success"`
	Variations []imagegen.Variation `json:"variations"`
	Message    *string              `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) fail(w http.ResponseWriter, code int, message string) {
	a.json(w, code, generateResponse{
		Success:    false,
		Variations: []imagegen.Variation{},
		Message:    &message,
	})
}
