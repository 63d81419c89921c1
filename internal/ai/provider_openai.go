package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultRealtimeModel      = "gpt-4o-realtime-preview"
	defaultTranscriptionModel = "gpt-4o-transcribe"
)

// OpenAIProvider issues sessions from the OpenAI realtime API.
type OpenAIProvider struct {
	apiKey             string
	baseURL            string
	client             *http.Client
	model              string
	transcriptionModel string
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithBaseURL sets the base URL of the API.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.client = client
	}
}

// WithModel sets the realtime model.
func WithModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithTranscriptionModel sets the input audio transcription model.
func WithTranscriptionModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.transcriptionModel = model
		}
	}
}

// NewOpenAIProvider creates a realtime provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:             apiKey,
		baseURL:            defaultOpenAIBaseURL,
		client:             http.DefaultClient,
		model:              defaultRealtimeModel,
		transcriptionModel: defaultTranscriptionModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// realtimeRequest is the request body for POST /realtime/sessions.
type realtimeRequest struct {
	Model                   string                `json:"model"`
	Voice                   string                `json:"voice"`
	Modalities              []string              `json:"modalities"`
	Instructions            string                `json:"instructions"`
	ToolChoice              string                `json:"tool_choice"`
	InputAudioTranscription inputAudioTranscriber `json:"input_audio_transcription"`
}

type inputAudioTranscriber struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// CreateSession requests an ephemeral session for the browser.
func (p *OpenAIProvider) CreateSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if p.apiKey == "" {
		return Session{}, ErrMissingAPIKey
	}

	voice := cfg.Voice
	if voice == "" {
		voice = VoiceDefault
	}
	instructions := cfg.Instructions
	if instructions == "" {
		instructions = TutorPersona
	}

	body, err := json.Marshal(realtimeRequest{
		Model:        p.model,
		Voice:        voice,
		Modalities:   []string{"audio", "text"},
		Instructions: instructions,
		ToolChoice:   "auto",
		InputAudioTranscription: inputAudioTranscriber{
			Model:  p.transcriptionModel,
			Prompt: TranscriptionPrompt,
		},
	})
	if err != nil {
		return Session{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/realtime/sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, fmt.Errorf("realtime api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	sess, err := parseSession(respBody)
	if err != nil {
		return Session{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return sess, nil
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if p.apiKey == "" {
		return ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
