// Package config resolves runtime configuration from environment variables
// and sensible defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores everything the service graph needs at startup.
type Config struct {
	Server   ServerConfig
	Sarvam   SarvamConfig
	Groq     GroqConfig
	Mail     MailConfig
	Segments SegmentConfig
	Assets   AssetConfig
}

type ServerConfig struct {
	Addr      string
	Greeting  string
	StreamURL string
}

type SarvamConfig struct {
	APIKey     string
	APIBaseURL string
	STTModel   string
	TTSModel   string
	TTSSpeaker string
	TransModel string
}

type GroqConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

type MailConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	FromName         string
	EmergencyContact string
	BookingFormLink  string
}

type SegmentConfig struct {
	SilenceRMS  float64
	MinSpeech   time.Duration
	SilenceGap  time.Duration
	MaxSpeech   time.Duration
	CloseMargin time.Duration
}

type AssetConfig struct {
	Dir string
}

// Load resolves configuration from environment variables and defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:      envOrDefault("MINDLINE_ADDR", ":8080"),
			Greeting:  strings.TrimSpace(os.Getenv("MINDLINE_GREETING")),
			StreamURL: strings.TrimSpace(os.Getenv("MINDLINE_STREAM_URL")),
		},
		Sarvam: SarvamConfig{
			APIKey:     strings.TrimSpace(os.Getenv("SARVAM_API_KEY")),
			APIBaseURL: envOrDefault("SARVAM_API_BASE", "https://api.sarvam.ai"),
			STTModel:   envOrDefault("SARVAM_STT_MODEL", "saaras:v2.5"),
			TTSModel:   envOrDefault("SARVAM_TTS_MODEL", "bulbul:v2"),
			TTSSpeaker: envOrDefault("SARVAM_TTS_SPEAKER", "anushka"),
			TransModel: envOrDefault("SARVAM_TRANSLATE_MODEL", "mayura:v1"),
		},
		Groq: GroqConfig{
			APIKey:     strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
			APIBaseURL: envOrDefault("GROQ_API_BASE", "https://api.groq.com/openai/v1"),
			Model:      envOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},
		Mail: MailConfig{
			Host:             envOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:             envOrDefaultInt("SMTP_PORT", 587),
			Username:         strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
			Password:         strings.TrimSpace(os.Getenv("SMTP_PASSWORD")),
			FromName:         envOrDefault("MINDLINE_MAIL_FROM_NAME", "MindBloom AI"),
			EmergencyContact: strings.TrimSpace(os.Getenv("MINDLINE_EMERGENCY_CONTACT")),
			BookingFormLink:  strings.TrimSpace(os.Getenv("MINDLINE_BOOKING_FORM_LINK")),
		},
		Segments: SegmentConfig{
			SilenceRMS:  float64(envOrDefaultInt("MINDLINE_SILENCE_RMS", 1000)),
			MinSpeech:   envMs("MINDLINE_MIN_SPEECH_MS", 1000),
			SilenceGap:  envMs("MINDLINE_SILENCE_GAP_MS", 1000),
			MaxSpeech:   envMs("MINDLINE_MAX_SPEECH_MS", 15000),
			CloseMargin: envMs("MINDLINE_CLOSE_MARGIN_MS", 2000),
		},
		Assets: AssetConfig{
			Dir: envOrDefault("MINDLINE_ASSET_DIR", "assets"),
		},
	}

	if cfg.Segments.SilenceRMS <= 0 {
		cfg.Segments.SilenceRMS = 1000
	}
	if cfg.Mail.Port <= 0 {
		cfg.Mail.Port = 587
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envMs(key string, fallbackMs int) time.Duration {
	ms := envOrDefaultInt(key, fallbackMs)
	if ms <= 0 {
		ms = fallbackMs
	}
	return time.Duration(ms) * time.Millisecond
}
