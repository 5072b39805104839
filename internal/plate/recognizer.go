package plate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EngineRecognizer calls an external OCR engine over HTTP. The engine
// receives the raw image and answers with the recognized text and a 0-100
// confidence score.
type EngineRecognizer struct {
	url    string
	client *http.Client
}

// NewEngineRecognizer creates a recognizer against the engine URL.
func NewEngineRecognizer(url string) *EngineRecognizer {
	return &EngineRecognizer{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type engineResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (r *EngineRecognizer) Recognize(ctx context.Context, image []byte) (RawRecognition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(image))
	if err != nil {
		return RawRecognition{}, fmt.Errorf("build engine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := r.client.Do(req)
	if err != nil {
		return RawRecognition{}, fmt.Errorf("call recognition engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RawRecognition{}, fmt.Errorf("recognition engine returned status %d", resp.StatusCode)
	}

	var parsed engineResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return RawRecognition{}, fmt.Errorf("decode engine response: %w", err)
	}
	return RawRecognition{Text: parsed.Text, Confidence: parsed.Confidence}, nil
}

// EchoRecognizer treats the image bytes as already-recognized text. It
// stands in for the engine in development and tests, where the input is a
// plain text payload rather than an image.
type EchoRecognizer struct {
	// Confidence reported for every recognition.
	Confidence float64
}

func (r EchoRecognizer) Recognize(_ context.Context, image []byte) (RawRecognition, error) {
	confidence := r.Confidence
	if confidence == 0 {
		confidence = 90
	}
	return RawRecognition{Text: string(image), Confidence: confidence}, nil
}
