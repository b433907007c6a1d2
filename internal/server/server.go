// Package server exposes the story video pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/domain/voice"
	"github.com/forPelevin/storyreel/internal/pipeline"
	"github.com/forPelevin/storyreel/internal/usecase"
)

const (
	DefaultSweepSchedule = "@every 1h"
	requestIDHeader      = "X-Request-ID"
	defaultCulture       = "Indian"
	shutdownTimeout      = 10 * time.Second
)

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
	RunStory(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Checker reports whether the external video tool can run.
type Checker interface {
	Available(ctx context.Context) error
}

type Options struct {
	Runner  Runner
	Checker Checker
	Voices  voice.Table
	OutDir  string
	Log     *zap.Logger

	// RetentionMaxAge enables the periodic sweep of old run directories.
	RetentionMaxAge time.Duration
	SweepSchedule   string
}

type Server struct {
	Router *gin.Engine
	opts   Options
	log    *zap.Logger
	cron   *cron.Cron
}

func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Voices == nil {
		opts.Voices = voice.DefaultTable()
	}
	if opts.SweepSchedule == "" {
		opts.SweepSchedule = DefaultSweepSchedule
	}

	s := &Server{Router: gin.New(), opts: opts, log: opts.Log}
	s.Router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Static("/static", s.opts.OutDir)

	api := s.Router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/themes", s.themes)
		api.GET("/languages", s.languages)
		api.POST("/story", s.basicStory)
		api.POST("/cultural-story", s.culturalStory)
		api.POST("/video-story", s.videoStory)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
		s.log.Info("http request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	ffmpegOK := s.opts.Checker == nil || s.opts.Checker.Available(c.Request.Context()) == nil
	video := "Video Creation (FFmpeg)"
	if !ffmpegOK {
		video = "Video Creation (FFmpeg Not Available)"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"ffmpeg_available": ffmpegOK,
		"features": []string{
			"Story Generation",
			"Multi-language TTS (ElevenLabs)",
			"Image Generation (Pollinations.ai)",
			video,
		},
	})
}

func (s *Server) themes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"themes": story.Themes()})
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": s.opts.Voices.Languages()})
}

type videoStoryRequest struct {
	Prompt   string `json:"prompt"`
	Theme    string `json:"theme"`
	Culture  string `json:"culture"`
	Region   string `json:"region"`
	Language string `json:"language"`
	Captions bool   `json:"captions"`
}

func (s *Server) videoStory(c *gin.Context) {
	var req videoStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Theme != "" && !story.IsTheme(req.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown theme: " + req.Theme})
		return
	}

	id := c.GetString("request_id")
	res, err := s.opts.Runner.Run(c.Request.Context(), pipeline.Request{
		RequestID: id,
		Prompt:    req.Prompt,
		Theme:     req.Theme,
		Culture:   req.Culture,
		Region:    req.Region,
		Language:  req.Language,
		Captions:  req.Captions,
	})
	if err != nil {
		s.log.Error("video story failed", zap.String("request_id", id), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrToolUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "video story generation failed: " + err.Error(), "request_id": id})
		return
	}

	m := res.Manifest
	base := s.staticBase(res.RunDir)
	images := make([]string, 0, len(m.Frames))
	for _, f := range m.Frames {
		images = append(images, path.Join(base, f.File))
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id":     m.RequestID,
		"story":          m.Story,
		"audio":          path.Join(base, m.AudioFile),
		"video":          path.Join(base, m.VideoFile),
		"manifest":       path.Join(base, "manifest.json"),
		"images":         images,
		"video_info":     m.VideoInfo,
		"theme":          m.Theme,
		"culture":        req.Culture,
		"language":       m.Language,
		"region":         req.Region,
		"num_frames":     len(m.Frames),
		"degraded":       m.Degraded,
		"dropped_scenes": m.DroppedScenes,
	})
}

type basicStoryRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// basicStory narrates a story written from free text, with an Indian themed
// cover image.
func (s *Server) basicStory(c *gin.Context) {
	var req basicStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no text provided"})
		return
	}
	s.runStory(c, "story generation failed: ", pipeline.Request{
		Prompt:   req.Text,
		Culture:  defaultCulture,
		Language: req.Language,
	})
}

type culturalStoryRequest struct {
	Theme        string `json:"theme"`
	Culture      string `json:"culture"`
	Region       string `json:"region"`
	Language     string `json:"language"`
	CustomPrompt string `json:"custom_prompt"`
}

// culturalStory narrates a themed story in the accent of culture and region.
func (s *Server) culturalStory(c *gin.Context) {
	var req culturalStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Theme == "" {
		req.Theme = story.DefaultTheme
	}
	if !story.IsTheme(req.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown theme: " + req.Theme})
		return
	}
	s.runStory(c, "cultural story generation failed: ", pipeline.Request{
		Prompt:         req.CustomPrompt,
		Theme:          req.Theme,
		Culture:        req.Culture,
		Region:         req.Region,
		Language:       req.Language,
		RegionalAccent: true,
	})
}

func (s *Server) runStory(c *gin.Context, errPrefix string, req pipeline.Request) {
	req.RequestID = c.GetString("request_id")
	res, err := s.opts.Runner.RunStory(c.Request.Context(), req)
	if err != nil {
		s.log.Error("story failed", zap.String("request_id", req.RequestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errPrefix + err.Error(), "request_id": req.RequestID})
		return
	}

	m := res.Manifest
	base := s.staticBase(res.RunDir)
	image := ""
	if len(m.Frames) > 0 {
		image = path.Join(base, m.Frames[0].File)
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id": m.RequestID,
		"story":      m.Story,
		"audio":      path.Join(base, m.AudioFile),
		"image":      image,
		"manifest":   path.Join(base, "manifest.json"),
		"theme":      m.Theme,
		"culture":    m.Culture,
		"region":     m.Region,
		"language":   m.Language,
		"degraded":   m.Degraded,
	})
}

// staticBase maps a run directory to its URL prefix under /static.
func (s *Server) staticBase(runDir string) string {
	rel, err := filepath.Rel(s.opts.OutDir, runDir)
	if err != nil {
		rel = filepath.Base(runDir)
	}
	return path.Join("/static", filepath.ToSlash(rel))
}

// StartSweeper schedules removal of expired run directories. It is a no-op
// when RetentionMaxAge is not set.
func (s *Server) StartSweeper() error {
	if s.opts.RetentionMaxAge <= 0 {
		return nil
	}
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.opts.SweepSchedule, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("retention sweep scheduled",
		zap.String("schedule", s.opts.SweepSchedule),
		zap.Duration("max_age", s.opts.RetentionMaxAge))
	return nil
}

func (s *Server) sweep() {
	removed, err := pipeline.Sweep(s.opts.OutDir, s.opts.RetentionMaxAge, time.Now())
	if err != nil {
		s.log.Warn("retention sweep", zap.Error(err))
	}
	if len(removed) > 0 {
		s.log.Info("retention sweep removed runs", zap.Int("count", len(removed)))
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.stopCron()
		return err
	case <-ctx.Done():
	}
	s.stopCron()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) stopCron() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
