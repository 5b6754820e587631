package voice

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIRecognizer performs single-shot speech-to-text through the Whisper
// transcription endpoint.
type OpenAIRecognizer struct {
	client   *openai.Client
	language string
}

// NewOpenAIRecognizer builds a recognizer for the given language code
// (e.g. "en" for en-US capture).
func NewOpenAIRecognizer(client *openai.Client, language string) *OpenAIRecognizer {
	return &OpenAIRecognizer{client: client, language: language}
}

// Transcribe sends one recorded utterance and returns the recognized text.
func (r *OpenAIRecognizer) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio,
		FilePath: filename,
		Language: r.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return resp.Text, nil
}

// OpenAISynthesizer renders utterances through the speech endpoint.
type OpenAISynthesizer struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// NewOpenAISynthesizer builds a synthesizer with the configured voice,
// falling back to the default voice when none is set.
func NewOpenAISynthesizer(client *openai.Client, voice string) *OpenAISynthesizer {
	v := openai.SpeechVoice(voice)
	if voice == "" {
		v = openai.VoiceAlloy
	}
	return &OpenAISynthesizer{client: client, voice: v}
}

// Synthesize returns the full audio of one utterance.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: s.voice,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	return audio, nil
}
