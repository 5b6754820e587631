package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/prescripto/medibot-backend/internal/config"
	"github.com/prescripto/medibot-backend/internal/handler"
	chathandler "github.com/prescripto/medibot-backend/internal/handler/chat"
	"github.com/prescripto/medibot-backend/internal/service/ai"
	"github.com/prescripto/medibot-backend/internal/service/conversation"
	"github.com/prescripto/medibot-backend/internal/service/voice"
	"github.com/prescripto/medibot-backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize the prompt relay
	var relay chathandler.Replier
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check the chat backend environment variables")
		} else {
			relay = aiService
			log.Printf("AI service initialized successfully, backend=%s", cfg.AI.Backend)
		}
	} else {
		log.Printf("chat backend %q credentials not configured, /api/chat will report failure", cfg.AI.Backend)
	}

	// Initialize speech capabilities
	var recognizer voice.Recognizer
	var synthesizer voice.Synthesizer
	if cfg.Speech.Enabled {
		speechClient := openai.NewClient(cfg.Speech.APIKey)
		recognizer = voice.NewOpenAIRecognizer(speechClient, cfg.Speech.Language)
		synthesizer = voice.NewOpenAISynthesizer(speechClient, cfg.Speech.Voice)
		log.Println("speech capabilities initialized successfully")
	} else {
		log.Println("speech credentials not configured, voice capture and playback disabled")
	}

	manager := conversation.NewManager(conversation.Deps{
		Relay:       relay,
		Recognizer:  recognizer,
		Synthesizer: synthesizer,
		Transcripts: store.NewMemoryStore(),
		Timeout:     time.Duration(cfg.AI.Timeout) * time.Second,
	})

	router := handler.NewRouter(relay, manager)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MediBot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
