// Package tts converts scripture text to speech through an HTTP voice
// provider.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/zenpod/internal/config"
)

var (
	// ErrEmptyAudio is returned when the provider answers without audio.
	ErrEmptyAudio = errors.New("tts provider returned empty audio")
	// ErrNotConfigured is returned when no provider URL is set.
	ErrNotConfigured = errors.New("tts provider not configured")
)

// Voices maps the public voice keys to provider voice names.
var Voices = map[string]string{
	"male":   "zh-CN-YunjianNeural",
	"female": "zh-CN-XiaoxiaoNeural",
	"monk":   "zh-CN-YunyeNeural",
}

const (
	// DefaultVoice is used for unknown voice keys.
	DefaultVoice = "monk"
	// DefaultRate slows speech slightly for recitation.
	DefaultRate = "-10%"
	// Format is the audio container returned to clients.
	Format = "mp3"
)

// VoiceName resolves a voice key, falling back to DefaultVoice.
func VoiceName(key string) string {
	if v, ok := Voices[strings.ToLower(key)]; ok {
		return v
	}
	return Voices[DefaultVoice]
}

// Synthesizer posts text to the provider and returns MP3 audio.
type Synthesizer struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewSynthesizer builds a Synthesizer from cfg.
func NewSynthesizer(cfg config.TTSConfig) *Synthesizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Format string `json:"format"`
}

// Synthesize returns the spoken text as raw MP3 bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceKey, rate string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if rate == "" {
		rate = DefaultRate
	}
	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: VoiceName(voiceKey), Rate: rate, Format: Format})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts provider status %d", resp.StatusCode)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}

// SynthesizeBase64 is Synthesize with the audio base64 encoded.
func (s *Synthesizer) SynthesizeBase64(ctx context.Context, text, voiceKey, rate string) (string, error) {
	audio, err := s.Synthesize(ctx, text, voiceKey, rate)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}
