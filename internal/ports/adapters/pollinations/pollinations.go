package pollinations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/forPelevin/storyreel/internal/ports/adapters/endpoint"
)

var Endpoint = endpoint.Rule{
	Name:         "POLLINATIONS_BASE_URL",
	Default:      "https://image.pollinations.ai",
	DefaultHosts: []string{"image.pollinations.ai"},
}

const (
	requestTimeout = 200 * time.Second
	maxImageBytes  = 32 << 20
)

type Adapter struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
}

func New(baseURL string) *Adapter {
	return &Adapter{
		baseURL:  endpoint.Normalize(baseURL, Endpoint.Default),
		client:   &http.Client{},
		maxBytes: maxImageBytes,
	}
}

func (a *Adapter) GenerateImage(ctx context.Context, prompt string, width, height int, outPath string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("pollinations: invalid size %dx%d", width, height)
	}
	u := a.requestURL(prompt, width, height)

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("pollinations timeout after %s", requestTimeout)
		}
		return fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pollinations status %d: %s", resp.StatusCode, string(rb))
	}

	// One byte past the cap tells a full image apart from a cut-off one.
	b, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		return fmt.Errorf("pollinations read body: %w", err)
	}
	if int64(len(b)) > a.maxBytes {
		return fmt.Errorf("pollinations: image body exceeds %d bytes", a.maxBytes)
	}
	if len(b) == 0 {
		return errors.New("pollinations: empty image body")
	}
	return os.WriteFile(outPath, b, 0o644)
}

// requestURL puts the prompt, already styled by the caller, in the path.
func (a *Adapter) requestURL(prompt string, width, height int) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("seed", "-1")
	q.Set("nologo", "true")
	return a.baseURL + "/prompt/" + url.PathEscape(prompt) + "?" + q.Encode()
}
