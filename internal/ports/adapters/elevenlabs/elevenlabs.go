package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/forPelevin/storyreel/internal/ports/adapters/endpoint"
)

var Endpoint = endpoint.Rule{
	Name:         "ELEVENLABS_BASE_URL",
	Default:      "https://api.elevenlabs.io",
	DefaultHosts: []string{"api.elevenlabs.io"},
}

const (
	DefaultModel   = "eleven_multilingual_v2"
	requestTimeout = 3 * time.Minute
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: endpoint.Normalize(baseURL, Endpoint.Default),
		client:  &http.Client{},
	}
}

func (a *Adapter) Synthesize(ctx context.Context, text, voiceID, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("elevenlabs: empty text")
	}
	if voiceID == "" {
		return errors.New("elevenlabs: voice id is required")
	}
	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": a.model,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := a.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", a.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("elevenlabs timeout after %s", requestTimeout)
		}
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := string(rb)
		if a.key != "" {
			msg = strings.ReplaceAll(msg, a.key, "[REDACTED]")
		}
		return fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, msg)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("elevenlabs write audio: %w", copyErr)
	}
	if closeErr != nil {
		return closeErr
	}
	if n == 0 {
		_ = os.Remove(outPath)
		return errors.New("elevenlabs: empty audio body")
	}
	return nil
}
