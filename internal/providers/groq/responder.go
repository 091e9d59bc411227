// Package groq is the open-domain conversation collaborator: a
// chat-completions client with bounded per-session history.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"mindline/internal/domain"
)

const systemPrompt = `You are Artika, a warm, empathetic, and compassionate mental health support companion from MindBloom AI.

YOUR PERSONALITY:
- You speak with genuine warmth and care, like a trusted friend who truly understands
- You are patient, non-judgmental, and create a safe space for sharing
- You use a calm, soothing tone that helps people feel at ease
- You acknowledge emotions before offering support

CONVERSATION STYLE:
- Keep responses concise (2-3 sentences) as they will be spoken aloud
- Use simple, accessible language - avoid clinical jargon
- Ask gentle, open-ended questions to understand better
- Validate feelings and offer hope without minimizing their experience

IMPORTANT BOUNDARIES:
- You are a supportive companion, NOT a replacement for professional therapy
- For serious mental health concerns, encourage speaking with a licensed professional
- Never diagnose conditions or prescribe treatments
- If someone is in immediate danger, encourage them to contact emergency services`

// maxHistoryMessages bounds retained context per session: ten exchanges.
const maxHistoryMessages = 20

// Config controls the chat-completions client.
type Config struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Timeout    time.Duration
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Responder implements ports.Responder with per-session conversation memory.
type Responder struct {
	cfg  Config
	http *http.Client

	mu        sync.Mutex
	histories map[string][]message
}

func NewResponder(cfg Config) *Responder {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Responder{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		histories: make(map[string][]message),
	}
}

// Respond sends the utterance with the session's retained history and
// records both sides of the exchange.
func (r *Responder) Respond(ctx context.Context, sessionID, text string) (string, error) {
	if strings.TrimSpace(r.cfg.APIKey) == "" {
		return "", errors.New("GROQ_API_KEY is not configured")
	}

	history := r.appendHistory(sessionID, message{Role: "user", Content: text})

	messages := make([]message, 0, len(history)+1)
	messages = append(messages, message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	body, err := json.Marshal(map[string]any{
		"model":       r.cfg.Model,
		"messages":    messages,
		"max_tokens":  200,
		"temperature": 0.75,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.APIBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: chat completion returned %d", domain.ErrUpstream, resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("%w: bad completion body: %v", domain.ErrUpstream, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices", domain.ErrUpstream)
	}

	reply := strings.TrimSpace(out.Choices[0].Message.Content)
	r.appendHistory(sessionID, message{Role: "assistant", Content: reply})
	return reply, nil
}

// ClearHistory drops a session's retained exchanges on teardown.
func (r *Responder) ClearHistory(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.histories, sessionID)
}

func (r *Responder) appendHistory(sessionID string, m message) []message {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := append(r.histories[sessionID], m)
	if len(h) > maxHistoryMessages {
		h = h[len(h)-maxHistoryMessages:]
	}
	r.histories[sessionID] = h
	return append([]message(nil), h...)
}
