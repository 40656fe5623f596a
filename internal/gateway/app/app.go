package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"ticketsmith/internal/gateway/config"
	"ticketsmith/internal/gateway/handler"
	"ticketsmith/internal/gateway/repository/screenshot"
	"ticketsmith/internal/gateway/repository/ticketstore"
	gatewayserver "ticketsmith/internal/gateway/server"
	"ticketsmith/internal/gateway/service/billing"
	"ticketsmith/internal/gateway/service/chat"
	"ticketsmith/internal/gateway/service/limiter"
	"ticketsmith/internal/jira"
	"ticketsmith/internal/llm"
	"ticketsmith/internal/ticket"
)

type App struct {
	server *gatewayserver.Server
	llm    llm.Client
	store  *ticketstore.Store
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newLLMClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init model client: %w", err)
	}

	store := ticketstore.NewFromEnv()
	shots := newScreenshotStore(cfg.Screenshot)

	usage := limiter.New(store)
	generator := ticket.NewGenerator(client, usage)
	refiner := ticket.NewRefiner(client)
	chatMgr := chat.NewManager(refiner)
	billingSvc := billing.New(store, cfg.Billing.WebhookSecret)
	jiraClient := jira.NewClient(cfg.Jira.ClientID, cfg.Jira.ClientSecret)

	h := handler.New(generator, refiner, chatMgr, store, shots, billingSvc, jiraClient)
	srv := gatewayserver.New(cfg.Port, gatewayserver.NewMux(h))

	return &App{server: srv, llm: client, store: store}, nil
}

// newLLMClient picks the real Gemini backend when an API key is
// configured and falls back to the canned fake otherwise, so the
// service still comes up in local environments without credentials.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	var client llm.Client
	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Printf("GEMINI_API_KEY not set; using fake model client")
		client = llm.NewFakeClient()
	} else {
		var err error
		client, err = llm.NewGeminiClient(context.Background(), cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
	}
	if os.Getenv("LLM_TRACE") == "1" {
		client = llm.WithHook(client, traceHook{})
	}
	return client, nil
}

// traceHook logs full prompts and raw responses with inline media
// stripped. Enabled with LLM_TRACE=1.
type traceHook struct{}

func (traceHook) Before(_ context.Context, op, prompt string) {
	log.Printf("LLM %s prompt:\n%s", op, llm.RedactMedia(prompt))
}

func (traceHook) After(_ context.Context, op string, raw json.RawMessage, err error) {
	if err != nil {
		log.Printf("LLM %s failed: %v", op, err)
		return
	}
	log.Printf("LLM %s response:\n%s", op, llm.RedactMedia(string(raw)))
}

func newScreenshotStore(cfg config.ScreenshotConfig) screenshot.Store {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return screenshot.NewMemoryStore()
	}
	s3, err := screenshot.NewS3Store(screenshot.S3Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		log.Printf("screenshot object store unavailable (%v); using in-memory store", err)
		return screenshot.NewMemoryStore()
	}
	return s3
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.llm.Close(); err != nil {
		log.Printf("model client close failed: %v", err)
	}
	if err := a.store.Close(); err != nil {
		log.Printf("ticket store close failed: %v", err)
	}
	return a.server.Shutdown(ctx)
}
