// Package sarvam is the HTTP client for the remote speech services:
// speech-to-text with translation, text translation, and text-to-speech.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"mindline/internal/domain"
	"mindline/internal/ports"
)

// CanonicalLanguage aliases the engine's working language for callers of
// this package.
const CanonicalLanguage = domain.CanonicalLanguage

// Config controls the Sarvam HTTP client.
type Config struct {
	APIKey     string
	APIBaseURL string
	STTModel   string
	TTSModel   string
	TTSSpeaker string
	TransModel string
}

// Client implements ports.Transcriber, ports.Translator and
// ports.Synthesizer against the Sarvam API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient applies defaults and builds a client around a tuned transport
// shared by all three endpoints.
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.sarvam.ai"
	}
	if cfg.STTModel == "" {
		cfg.STTModel = "saaras:v2.5"
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = "bulbul:v2"
	}
	if cfg.TTSSpeaker == "" {
		cfg.TTSSpeaker = "anushka"
	}
	if cfg.TransModel == "" {
		cfg.TransModel = "mayura:v1"
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     60 * time.Second,
				TLSHandshakeTimeout: 3 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

// TranscribeTranslate uploads one WAV utterance and returns canonical text
// plus the detected source language. An empty transcript is reported as
// domain.ErrNoSpeech.
func (c *Client) TranscribeTranslate(ctx context.Context, wav []byte) (ports.TranscriptionResult, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return ports.TranscriptionResult{}, errors.New("SARVAM_API_KEY is not configured")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return ports.TranscriptionResult{}, err
	}
	if _, err := fw.Write(wav); err != nil {
		return ports.TranscriptionResult{}, err
	}
	if err := mw.WriteField("model", c.cfg.STTModel); err != nil {
		return ports.TranscriptionResult{}, err
	}
	if err := mw.Close(); err != nil {
		return ports.TranscriptionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBaseURL+"/speech-to-text-translate", &body)
	if err != nil {
		return ports.TranscriptionResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("api-subscription-key", c.cfg.APIKey)

	var out struct {
		Transcript   string `json:"transcript"`
		LanguageCode string `json:"language_code"`
	}
	if err := c.do(req, &out); err != nil {
		return ports.TranscriptionResult{}, err
	}

	transcript := strings.TrimSpace(out.Transcript)
	if transcript == "" {
		return ports.TranscriptionResult{}, domain.ErrNoSpeech
	}
	lang := out.LanguageCode
	if lang == "" {
		lang = CanonicalLanguage
	}
	return ports.TranscriptionResult{Text: transcript, Language: lang}, nil
}

// Translate converts text between languages, returning the input unchanged
// on any failure so a translation outage never loses the reply.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload := map[string]any{
		"input":                text,
		"source_language_code": sourceLang,
		"target_language_code": targetLang,
		"speaker_gender":       "Male",
		"mode":                 "formal",
		"model":                c.cfg.TransModel,
		"enable_preprocessing": true,
	}

	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := c.postJSON(ctx, "/translate", payload, &out, 10*time.Second); err != nil {
		return text, nil
	}
	translated := strings.TrimSpace(out.TranslatedText)
	if translated == "" {
		return text, nil
	}
	return translated, nil
}

// maxTTSChars bounds synthesis input as the API requires. The cap counts
// characters, not bytes: translated replies carry multibyte scripts.
const maxTTSChars = 500

// Synthesize renders text as wideband WAV audio in the target language.
func (c *Client) Synthesize(ctx context.Context, text, targetLang string) ([]byte, error) {
	text = truncateRunes(text, maxTTSChars)

	payload := map[string]any{
		"inputs":               []string{text},
		"target_language_code": targetLang,
		"speaker":              c.cfg.TTSSpeaker,
		"model":                c.cfg.TTSModel,
	}

	var out struct {
		Audios []string `json:"audios"`
	}
	if err := c.postJSON(ctx, "/text-to-speech", payload, &out, 10*time.Second); err != nil {
		return nil, err
	}
	if len(out.Audios) == 0 {
		return nil, fmt.Errorf("%w: synthesis returned no audio", domain.ErrUpstream)
	}

	wav, err := base64.StdEncoding.DecodeString(out.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid synthesis payload: %v", domain.ErrUpstream, err)
	}
	return wav, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, timeout time.Duration) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.New("SARVAM_API_KEY is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-subscription-key", c.cfg.APIKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d: %s",
			domain.ErrUpstream, req.URL.Path, resp.StatusCode, truncate(string(b), 300))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: bad response body: %v", domain.ErrUpstream, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
