package types

import "time"

const (
	FrameWidth  = 1280
	FrameHeight = 720
)

type Scene struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Frame struct {
	SceneIndex int    `json:"scene_index"`
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Fallback   bool   `json:"fallback,omitempty"`
}

type NarrationAudio struct {
	Path     string        `json:"path"`
	Duration time.Duration `json:"-"`
	VoiceID  string        `json:"voice_id"`
}

type VideoInfo struct {
	Filename   string  `json:"filename"`
	SizeMB     float64 `json:"size_mb"`
	Duration   float64 `json:"duration"`
	VideoCodec string  `json:"video_codec"`
	AudioCodec string  `json:"audio_codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Manifest modes.
const (
	ModeVideo = "video"
	ModeStory = "story"
)

type Manifest struct {
	RequestID     string          `json:"request_id"`
	Mode          string          `json:"mode"`
	Prompt        string          `json:"prompt"`
	Culture       string          `json:"culture,omitempty"`
	Region        string          `json:"region,omitempty"`
	Theme         string          `json:"theme,omitempty"`
	Language      string          `json:"language"`
	VoiceID       string          `json:"voice_id"`
	Story         string          `json:"story"`
	Scenes        []Scene         `json:"scenes"`
	Frames        []ManifestFrame `json:"frames"`
	DroppedScenes []int           `json:"dropped_scenes"`
	Degraded      bool            `json:"degraded"`
	AudioFile     string          `json:"audio"`
	AudioSec      float64         `json:"audio_sec,omitempty"`
	TimingMode    string          `json:"timing_mode,omitempty"`
	VideoFile     string          `json:"video,omitempty"`
	Captions      string          `json:"captions,omitempty"`
	VideoInfo     *VideoInfo      `json:"video_info,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ManifestFrame struct {
	SceneIndex int     `json:"scene_index"`
	File       string  `json:"file"`
	Seconds    float64 `json:"seconds"`
	Fallback   bool    `json:"fallback,omitempty"`
}
