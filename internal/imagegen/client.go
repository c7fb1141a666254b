package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra"
)

var (
	// ErrMissingKey means no API credential was configured. Checked before
	// any network activity so a misconfigured deployment fails fast.
	ErrMissingKey = errors.New("imagegen: GEMINI_API_KEY is not set")
	// ErrResponseParse means the upstream answered 2xx with a body that is
	// not the JSON shape we expect.
	ErrResponseParse = errors.New("imagegen: unparsable upstream response")
	// ErrNoImages means the call succeeded but no part of the response
	// carried inline image data.
	ErrNoImages = errors.New("imagegen: no images generated")
)

// UpstreamError is a non-2xx answer from the generation API. Body is
// truncated to keep logs bounded.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("imagegen: upstream status %d: %s", e.StatusCode, e.Body)
}

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-image-preview"
	// maxErrorBody bounds how much of an upstream error body is kept.
	maxErrorBody = 2048
	// maxAngleImages caps combined-angle extraction: side, then back.
	maxAngleImages = 2
)

// Options controls how the generation client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
	Prompts    Renderer
}

// Client calls the Gemini generateContent endpoint with a photo and a
// rendered instruction, and reshapes the response into tagged variations.
// One instance is shared across requests; it holds no per-request state.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	prompts    Renderer
}

// NewClient constructs a generation client. Callers may leave HTTPClient
// nil; a reusable one with a 60s timeout is created.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		prompts:    opts.Prompts,
	}
}

// Request payload uses the snake_case field names the generateContent API
// accepts for uploads; responses come back camelCase. The two sets of
// structs are kept separate for that reason.
type generateContentRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string             `json:"text,omitempty"`
	InlineData *requestInlineData `json:"inline_data,omitempty"`
}

type requestInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Response structs mirror only the fields we navigate. Anything absent is a
// legitimate "skip this part", not an error: the model freely mixes text
// parts in with image parts.
type generateContentResponse struct {
	Candidates []responseCandidate `json:"candidates"`
}

type responseCandidate struct {
	Content responseContent `json:"content"`
}

type responseContent struct {
	Parts []responsePart `json:"parts"`
}

type responsePart struct {
	Text       string              `json:"text,omitempty"`
	InlineData *responseInlineData `json:"inlineData,omitempty"`
}

type responseInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// dataURL renders a complete inline part as a data URL. Returns "" unless
// both the mime type and the payload are present.
func (p responsePart) dataURL() string {
	if p.InlineData == nil || p.InlineData.MimeType == "" || p.InlineData.Data == "" {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data)
}

// Generate sends one generation request and extracts the resulting images.
// With generateAngles false it renders the front-view instruction and tags
// every returned image "front". With generateAngles true it renders the
// side-and-back instruction and reads only the first candidate: the first
// image becomes "side", the second "back", anything further is dropped.
// Later candidates tend to restate the first rather than add samples, which
// is why they are ignored in that mode. No retries at this layer.
func (c *Client) Generate(ctx context.Context, styleDescription string, imageData []byte, generateAngles bool) ([]Variation, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	instruction := c.prompts.FrontView(styleDescription)
	if generateAngles {
		instruction = c.prompts.SideAndBackViews(styleDescription)
	}

	c.logger.Info().
		Bool("generate_angles", generateAngles).
		Int("prompt_len", len(styleDescription)).
		Int("image_bytes", len(imageData)).
		Msg("imagegen: calling generation API")

	response, err := c.invoke(ctx, instruction, imageData)
	if err != nil {
		return nil, err
	}

	var variations []Variation
	if generateAngles {
		variations = extractAngleVariations(response)
	} else {
		variations = extractFrontVariations(response)
	}
	if len(variations) == 0 {
		c.logger.Error().
			Bool("generate_angles", generateAngles).
			Int("candidates", len(response.Candidates)).
			Msg("imagegen: upstream returned zero images")
		return nil, ErrNoImages
	}
	return variations, nil
}

func (c *Client) invoke(ctx context.Context, instruction string, imageData []byte) (*generateContentResponse, error) {
	payload := generateContentRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{Text: instruction},
				{InlineData: &requestInlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(imageData),
				}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("imagegen: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("imagegen: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen: invoke upstream: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: read upstream response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		upstream := &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
		c.logger.Error().
			Int("status", upstream.StatusCode).
			Str("body", upstream.Body).
			Msg("imagegen: upstream error")
		return nil, upstream
	}

	var response generateContentResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		c.logger.Error().
			Err(err).
			Str("body", truncate(string(raw), maxErrorBody)).
			Msg("imagegen: failed to parse upstream response")
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	return &response, nil
}

// extractFrontVariations scans every candidate and every part. Text-only
// parts are skipped silently; the model often explains itself alongside the
// image.
func extractFrontVariations(response *generateContentResponse) []Variation {
	var variations []Variation
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if u := part.dataURL(); u != "" {
				variations = append(variations, Variation{Image: u, Angle: AngleFront})
			}
		}
	}
	return variations
}

// extractAngleVariations reads only the first candidate and caps extraction
// at two images, in part order: side then back.
func extractAngleVariations(response *generateContentResponse) []Variation {
	if len(response.Candidates) == 0 {
		return nil
	}
	angles := [maxAngleImages]Angle{AngleSide, AngleBack}
	var variations []Variation
	for _, part := range response.Candidates[0].Content.Parts {
		u := part.dataURL()
		if u == "" {
			continue
		}
		variations = append(variations, Variation{Image: u, Angle: angles[len(variations)]})
		if len(variations) == maxAngleImages {
			break
		}
	}
	return variations
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
