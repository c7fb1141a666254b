package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/imagegen"
	"server/internal/validate"
)

type generateRequest struct {
	Prompt         string `json:"prompt"`
	ImageData      string `json:"imageData"`
	GenerateAngles bool   `json:"generateAngles"`
}

// Generate is the one user-facing operation: validate the upload, hand it
// to the generation client, reshape the result. Validation failures return
// their specific reason since the caller can fix those; everything that
// goes wrong past the trust boundary collapses to one generic message and
// is only logged in detail.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validate.Image(req.ImageData); err != nil {
		a.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Prompt(req.Prompt); err != nil {
		a.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		// Unreachable after validation, kept as a guard.
		a.fail(w, http.StatusBadRequest, "invalid image data")
		return
	}

	variations, err := a.Generator.Generate(r.Context(), req.Prompt, imageData, req.GenerateAngles)
	if err != nil {
		a.logGenerateFailure(r, err)
		a.fail(w, http.StatusInternalServerError, "failed to generate images")
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Success:    true,
		Variations: variations,
		Message:    nil,
	})
}

func (a *App) logGenerateFailure(r *http.Request, err error) {
	evt := a.Logger.Error().Err(err).Str("path", r.URL.Path)
	var upstream *imagegen.UpstreamError
	switch {
	case errors.As(err, &upstream):
		evt = evt.Int("upstream_status", upstream.StatusCode)
	case errors.Is(err, imagegen.ErrMissingKey):
		evt = evt.Str("hint", "set GEMINI_API_KEY")
	case errors.Is(err, imagegen.ErrNoImages):
		evt = evt.Str("hint", "model returned text only")
	}
	evt.Msg("image generation failed")
}
