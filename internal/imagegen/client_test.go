package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubRenderer struct{}

func (stubRenderer) FrontView(desc string) string        { return "front instruction: " + desc }
func (stubRenderer) SideAndBackViews(desc string) string { return "angles instruction: " + desc }

func newTestClient(t *testing.T, upstream http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)
	client := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Prompts: stubRenderer{},
	})
	return client, ts
}

func inlinePart(mime, data string) responsePart {
	return responsePart{InlineData: &responseInlineData{MimeType: mime, Data: data}}
}

func textPart(text string) responsePart {
	return responsePart{Text: text}
}

func respond(t *testing.T, w http.ResponseWriter, candidates ...responseCandidate) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(generateContentResponse{Candidates: candidates}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGenerateSendsTwoPartPayload(t *testing.T) {
	imageData := []byte{0xff, 0xd8, 0xff, 0xe0}
	var captured struct {
		Contents []struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mime_type"`
					Data     string `json:"data"`
				} `json:"inline_data"`
			} `json:"parts"`
		} `json:"contents"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Fatalf("unexpected api key header: %s", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash-image-preview:generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		respond(t, w, responseCandidate{Content: responseContent{Parts: []responsePart{
			inlinePart("image/png", "aW1n"),
		}}})
	})

	if _, err := client.Generate(context.Background(), "buzz cut", imageData, false); err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected payload shape: %+v", captured)
	}
	if got := captured.Contents[0].Parts[0].Text; got != "front instruction: buzz cut" {
		t.Fatalf("instruction mismatch: %s", got)
	}
	inline := captured.Contents[0].Parts[1].InlineData
	if inline == nil || inline.MimeType != "image/jpeg" {
		t.Fatalf("inline data mismatch: %+v", inline)
	}
	if inline.Data != base64.StdEncoding.EncodeToString(imageData) {
		t.Fatalf("image bytes not base64-encoded into payload")
	}
}

func TestGenerateFrontScansAllCandidates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w,
			responseCandidate{Content: responseContent{Parts: []responsePart{
				textPart("here is your haircut"),
				inlinePart("image/png", "Zmlyc3Q="),
			}}},
			responseCandidate{Content: responseContent{Parts: []responsePart{
				inlinePart("image/jpeg", "c2Vjb25k"),
			}}},
		)
	})

	variations, err := client.Generate(context.Background(), "bob", []byte("img"), false)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(variations) != 2 {
		t.Fatalf("expected 2 variations, got %d", len(variations))
	}
	for i, v := range variations {
		if v.Angle != AngleFront {
			t.Fatalf("variation %d angle = %s, want front", i, v.Angle)
		}
	}
	if variations[0].Image != "data:image/png;base64,Zmlyc3Q=" {
		t.Fatalf("unexpected data url: %s", variations[0].Image)
	}
	if variations[1].Image != "data:image/jpeg;base64,c2Vjb25k" {
		t.Fatalf("unexpected data url: %s", variations[1].Image)
	}
}

func TestGenerateAnglesUsesFirstCandidateOnly(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w,
			responseCandidate{Content: responseContent{Parts: []responsePart{
				inlinePart("image/png", "c2lkZQ=="),
				textPart("and from behind"),
				inlinePart("image/png", "YmFjaw=="),
				inlinePart("image/png", "ZXh0cmE="),
			}}},
			responseCandidate{Content: responseContent{Parts: []responsePart{
				inlinePart("image/png", "ZHVwbGljYXRl"),
			}}},
		)
	})

	variations, err := client.Generate(context.Background(), "mullet", []byte("img"), true)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(variations) != 2 {
		t.Fatalf("expected exactly 2 variations, got %d", len(variations))
	}
	if variations[0].Angle != AngleSide || variations[1].Angle != AngleBack {
		t.Fatalf("unexpected angle order: %s, %s", variations[0].Angle, variations[1].Angle)
	}
	if variations[0].Image != "data:image/png;base64,c2lkZQ==" {
		t.Fatalf("unexpected side image: %s", variations[0].Image)
	}
	if variations[1].Image != "data:image/png;base64,YmFjaw==" {
		t.Fatalf("unexpected back image: %s", variations[1].Image)
	}
}

func TestGenerateAnglesRendersAngleInstruction(t *testing.T) {
	var gotInstruction string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotInstruction = payload.Contents[0].Parts[0].Text
		respond(t, w, responseCandidate{Content: responseContent{Parts: []responsePart{
			inlinePart("image/png", "aW1n"),
		}}})
	})

	if _, err := client.Generate(context.Background(), "pixie", []byte("img"), true); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if gotInstruction != "angles instruction: pixie" {
		t.Fatalf("instruction mismatch: %s", gotInstruction)
	}
}

func TestGenerateNoImages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, responseCandidate{Content: responseContent{Parts: []responsePart{
			textPart("sorry, I cannot edit this photo"),
		}}})
	})

	_, err := client.Generate(context.Background(), "bob", []byte("img"), false)
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
}

func TestGenerateIncompleteInlineDataSkipped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, responseCandidate{Content: responseContent{Parts: []responsePart{
			{InlineData: &responseInlineData{MimeType: "image/png"}}, // no payload
			{InlineData: &responseInlineData{Data: "aW1n"}},          // no mime
		}}})
	})

	_, err := client.Generate(context.Background(), "bob", []byte("img"), false)
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages for partial inline data, got %v", err)
	}
}

func TestGenerateMissingKeySkipsNetwork(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, Prompts: stubRenderer{}})
	_, err := client.Generate(context.Background(), "bob", []byte("img"), false)
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if called {
		t.Fatal("request was issued despite missing credential")
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", maxErrorBody+500)))
	})

	_, err := client.Generate(context.Background(), "bob", []byte("img"), false)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", upstream.StatusCode)
	}
	if len(upstream.Body) != maxErrorBody {
		t.Fatalf("body not truncated: %d bytes", len(upstream.Body))
	}
}

func TestGenerateUnparsableResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	})

	_, err := client.Generate(context.Background(), "bob", []byte("img"), false)
	if !errors.Is(err, ErrResponseParse) {
		t.Fatalf("expected ErrResponseParse, got %v", err)
	}
}
