package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/storyreel/internal/pipeline"
	"github.com/forPelevin/storyreel/internal/types"
	"github.com/forPelevin/storyreel/internal/usecase"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeRunner struct {
	outDir    string
	err       error
	got       pipeline.Request
	storyRuns int
}

func (f *fakeRunner) RunStory(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.got = req
	f.storyRuns++
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return pipeline.Result{
		RunDir: filepath.Join(f.outDir, "a-fox-20260301-120000Z-def456"),
		Manifest: types.Manifest{
			RequestID: req.RequestID,
			Mode:      types.ModeStory,
			Theme:     req.Theme,
			Culture:   req.Culture,
			Region:    req.Region,
			Language:  "Hindi-South",
			Story:     "Once there was a fox.",
			Frames:    []types.ManifestFrame{{SceneIndex: 1, File: "cover.png"}},
			AudioFile: "narration.mp3",
		},
	}, nil
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.got = req
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return pipeline.Result{
		RunDir: filepath.Join(f.outDir, "folklore-20260301-120000Z-abc123"),
		Manifest: types.Manifest{
			RequestID: req.RequestID,
			Theme:     req.Theme,
			Language:  "English",
			Story:     "Once there was a fox.",
			Frames: []types.ManifestFrame{
				{SceneIndex: 1, File: "frames/scene_01.png", Seconds: 3},
				{SceneIndex: 3, File: "frames/scene_03.png", Seconds: 3},
			},
			DroppedScenes: []int{2},
			Degraded:      true,
			AudioFile:     "narration.mp3",
			VideoFile:     "story_video.mp4",
		},
	}, nil
}

type fakeChecker struct{ err error }

func (f fakeChecker) Available(context.Context) error { return f.err }

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestVideoStory(t *testing.T) {
	out := t.TempDir()
	runner := &fakeRunner{outDir: out}
	s := New(Options{Runner: runner, OutDir: out})

	rec, body := do(t, s, http.MethodPost, "/api/video-story",
		`{"theme":"folklore","culture":"Indian","language":"Hindi","region":"Mumbai","captions":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if runner.got.RequestID == "" || runner.got.RequestID != rec.Header().Get(requestIDHeader) {
		t.Fatalf("request id not propagated: %q vs %q", runner.got.RequestID, rec.Header().Get(requestIDHeader))
	}
	if !runner.got.Captions || runner.got.Region != "Mumbai" {
		t.Fatalf("request fields not forwarded: %+v", runner.got)
	}
	if body["video"] != "/static/folklore-20260301-120000Z-abc123/story_video.mp4" {
		t.Fatalf("unexpected video url %v", body["video"])
	}
	if body["degraded"] != true || body["num_frames"] != float64(2) {
		t.Fatalf("unexpected degraded/num_frames: %v %v", body["degraded"], body["num_frames"])
	}
	images, _ := body["images"].([]any)
	if len(images) != 2 || images[1] != "/static/folklore-20260301-120000Z-abc123/frames/scene_03.png" {
		t.Fatalf("unexpected images: %v", images)
	}
}

func TestVideoStory_Errors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		runErr     error
		wantStatus int
		wantError  string
	}{
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "unknown theme", body: `{"theme":"space"}`, wantStatus: http.StatusBadRequest, wantError: "unknown theme: space"},
		{
			name:       "tool unavailable",
			body:       `{}`,
			runErr:     fmt.Errorf("%w: exec: \"ffmpeg\": not found", usecase.ErrToolUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "video tool unavailable",
		},
		{
			name:       "pipeline failure",
			body:       `{}`,
			runErr:     errors.New("synthesize narration: elevenlabs status 401"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "elevenlabs status 401",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Options{Runner: &fakeRunner{err: tc.runErr}, OutDir: t.TempDir()})
			rec, body := do(t, s, http.MethodPost, "/api/video-story", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			msg, _ := body["error"].(string)
			if msg == "" || !strings.Contains(msg, tc.wantError) {
				t.Fatalf("unexpected error message %q", msg)
			}
		})
	}
}

func TestBasicStory(t *testing.T) {
	out := t.TempDir()
	runner := &fakeRunner{outDir: out}
	s := New(Options{Runner: runner, OutDir: out})

	rec, body := do(t, s, http.MethodPost, "/api/story", `{"text":"a clever fox","language":"Hindi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	want := pipeline.Request{
		RequestID: rec.Header().Get(requestIDHeader),
		Prompt:    "a clever fox",
		Culture:   "Indian",
		Language:  "Hindi",
	}
	if runner.got != want {
		t.Fatalf("request = %+v, want %+v", runner.got, want)
	}
	if body["image"] != "/static/a-fox-20260301-120000Z-def456/cover.png" ||
		body["audio"] != "/static/a-fox-20260301-120000Z-def456/narration.mp3" {
		t.Fatalf("unexpected urls: %v %v", body["image"], body["audio"])
	}
	if _, ok := body["video"]; ok {
		t.Fatalf("story response must not carry a video: %v", body)
	}
}

func TestCulturalStory(t *testing.T) {
	out := t.TempDir()
	runner := &fakeRunner{outDir: out}
	s := New(Options{Runner: runner, OutDir: out})

	rec, body := do(t, s, http.MethodPost, "/api/cultural-story",
		`{"culture":"Indian","region":"Tamil","language":"English","custom_prompt":"a temple elephant"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	got := runner.got
	if got.Theme != "folklore" || got.Prompt != "a temple elephant" || !got.RegionalAccent || got.Region != "Tamil" {
		t.Fatalf("request fields not forwarded: %+v", got)
	}
	if body["language"] != "Hindi-South" || body["region"] != "Tamil" || body["theme"] != "folklore" {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestStoryModes_Errors(t *testing.T) {
	cases := []struct {
		name       string
		target     string
		body       string
		runErr     error
		wantStatus int
		wantError  string
	}{
		{name: "story without text", target: "/api/story", body: `{"text":"  "}`, wantStatus: http.StatusBadRequest, wantError: "no text provided"},
		{name: "story bad json", target: "/api/story", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "cultural unknown theme", target: "/api/cultural-story", body: `{"theme":"space"}`, wantStatus: http.StatusBadRequest, wantError: "unknown theme: space"},
		{
			name:       "story backend failure",
			target:     "/api/story",
			body:       `{"text":"a fox"}`,
			runErr:     errors.New("write story: openrouter status 500"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "story generation failed: write story",
		},
		{
			name:       "cultural backend failure",
			target:     "/api/cultural-story",
			body:       `{}`,
			runErr:     errors.New("synthesize narration: elevenlabs status 401"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "cultural story generation failed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{err: tc.runErr}
			s := New(Options{Runner: runner, OutDir: t.TempDir()})
			rec, body := do(t, s, http.MethodPost, tc.target, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			msg, _ := body["error"].(string)
			if msg == "" || !strings.Contains(msg, tc.wantError) {
				t.Fatalf("unexpected error message %q", msg)
			}
			if tc.runErr == nil && runner.storyRuns != 0 {
				t.Fatalf("runner must not be called for rejected input")
			}
		})
	}
}

func TestCatalogueRoutes(t *testing.T) {
	s := New(Options{Runner: &fakeRunner{}, Checker: fakeChecker{err: errors.New("missing")}, OutDir: t.TempDir()})

	rec, body := do(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || body["ffmpeg_available"] != false {
		t.Fatalf("unexpected health: %d %v", rec.Code, body)
	}

	_, body = do(t, s, http.MethodGet, "/api/themes", "")
	if themes, _ := body["themes"].([]any); len(themes) != 8 {
		t.Fatalf("expected 8 themes, got %v", body["themes"])
	}

	_, body = do(t, s, http.MethodGet, "/api/languages", "")
	langs, _ := body["languages"].([]any)
	found := false
	for _, l := range langs {
		if l == "English" {
			found = true
		}
	}
	if !found {
		t.Fatalf("English missing from languages: %v", langs)
	}
}

func TestStaticServesRunFiles(t *testing.T) {
	out := t.TempDir()
	run := filepath.Join(out, "folklore-20260301-120000Z-abc123")
	if err := os.MkdirAll(run, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(run, "manifest.json"), []byte(`{"degraded":false}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(Options{Runner: &fakeRunner{}, OutDir: out})
	rec, _ := do(t, s, http.MethodGet, "/static/folklore-20260301-120000Z-abc123/manifest.json", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("static file not served: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStartSweeper(t *testing.T) {
	s := New(Options{Runner: &fakeRunner{}, OutDir: t.TempDir(), RetentionMaxAge: time.Hour, SweepSchedule: "not a schedule"})
	if err := s.StartSweeper(); err == nil {
		t.Fatalf("expected invalid schedule error")
	}

	s = New(Options{Runner: &fakeRunner{}, OutDir: t.TempDir(), RetentionMaxAge: time.Hour})
	if err := s.StartSweeper(); err != nil {
		t.Fatalf("start sweeper: %v", err)
	}
	s.stopCron()
}
