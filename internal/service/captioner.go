// Package service holds the background side of the upload pipeline:
// captioning, tag derivation and the periodic maintenance tickers.
package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

const captionPrompt = "Describe this image in one short sentence, naming the main subjects, " +
	"the setting and any notable activity. Answer with the description only."

// Captioner turns image bytes into a short description. Failures are
// never fatal to the upload that triggered them.
type Captioner interface {
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}

// GeminiCaptioner calls the Gemini generateContent REST endpoint with
// the image inlined
type GeminiCaptioner struct {
	APIKey  string
	Model   string
	Client  *http.Client
	BaseURL string
}

func NewGeminiCaptioner() *GeminiCaptioner {
	return &GeminiCaptioner{
		APIKey:  viper.GetString("gemini.api_key"),
		Model:   viper.GetString("gemini.model"),
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiCaptioner) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("no gemini api key configured")
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: captionPrompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, g.Model, g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error, status %d: %s", resp.StatusCode, respBody)
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no description returned")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
