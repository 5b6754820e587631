// Command voicetester exercises the configured speech capabilities from the
// command line: transcribe a recorded file, or synthesize a text to audio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/prescripto/medibot-backend/internal/config"
	"github.com/prescripto/medibot-backend/internal/service/voice"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env, using system environment variables: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.Speech.Enabled {
		log.Fatal("speech capabilities are not configured; set OPENAI_API_KEY or SPEECH_API_KEY first")
	}

	mode := flag.String("mode", "", "test mode: asr or tts")
	audioPath := flag.String("audio", "", "ASR input audio file path")
	text := flag.String("text", "", "TTS input text")
	outputPath := flag.String("out", "", "TTS output file path (default auto-generated)")
	sanitize := flag.Bool("sanitize", true, "apply the playback sanitizer to TTS input")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *mode != "asr" && *mode != "tts" {
		flag.Usage()
		log.Fatal("specify a test mode with -mode=asr or -mode=tts")
	}

	client := openai.NewClient(cfg.Speech.APIKey)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "asr":
		runASR(ctx, client, cfg, *audioPath)
	case "tts":
		runTTS(ctx, client, cfg, *text, *outputPath, *sanitize)
	}
}

func runASR(ctx context.Context, client *openai.Client, cfg *config.Config, audioPath string) {
	if audioPath == "" {
		log.Fatal("asr mode needs an audio file path via -audio")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer file.Close()

	recognizer := voice.NewOpenAIRecognizer(client, cfg.Speech.Language)

	log.Printf("transcribing %s, language=%s", audioPath, cfg.Speech.Language)
	text, err := recognizer.Transcribe(ctx, file, audioPath)
	if err != nil {
		log.Fatalf("transcription failed: %v", err)
	}

	log.Printf("transcription succeeded: %q", text)
}

func runTTS(ctx context.Context, client *openai.Client, cfg *config.Config, text, outputPath string, sanitize bool) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode needs input text via -text")
	}

	if sanitize {
		text = voice.Sanitize(text)
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.mp3", time.Now().Unix())
	}

	synthesizer := voice.NewOpenAISynthesizer(client, cfg.Speech.Voice)

	log.Printf("synthesizing %d characters, voice=%q", len(text), cfg.Speech.Voice)
	audio, err := synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}

	if err := os.WriteFile(outputPath, audio, 0o644); err != nil {
		log.Fatalf("failed to write audio file: %v", err)
	}

	log.Printf("synthesis succeeded: wrote %s (%d bytes)", outputPath, len(audio))
}
