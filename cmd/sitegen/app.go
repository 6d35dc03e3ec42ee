package main

import (
	"time"

	"go.uber.org/zap"

	"sitegen/internal/ai"
	"sitegen/internal/cache"
	"sitegen/internal/config"
	"sitegen/internal/images"
	"sitegen/internal/metrics"
	"sitegen/internal/orchestrator"
	"sitegen/internal/parser"
)

// app holds the wired services shared by the serve and generate commands
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	router  *ai.Router
	cache   *cache.RedisCache
	engine  *orchestrator.Engine
	metrics *metrics.Metrics
}

// newApp wires providers, cache, images and the engine. m is nil for
// one-shot commands that expose no metrics.
func newApp(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) *app {
	a := &app{cfg: cfg, log: log, metrics: m}
	if m != nil {
		m.SetBuildInfo(version, commit)
	}

	routerOpts := []ai.RouterOption{
		ai.WithOrder(cfg.Chain()),
		ai.WithLogger(log),
	}
	parserOpts := []parser.Option{parser.WithLogger(log)}
	if a.metrics != nil {
		routerOpts = append(routerOpts, ai.WithRecorder(a.metrics))
		parserOpts = append(parserOpts, parser.WithObserver(a.metrics))
	}
	a.router = ai.NewRouter(buildClients(cfg), ai.NewKeyPool(cfg.Keys, time.Now().UnixNano()), routerOpts...)

	c, err := cache.Open(&cache.CacheConfig{
		RedisURL:       cfg.Cache.RedisURL,
		MaxMemoryItems: cfg.Cache.MaxMemoryItems,
		ImageTTL:       cfg.Cache.ImageTTL,
		IntentTTL:      cfg.Cache.IntentTTL,
		KeyPrefix:      cfg.Cache.KeyPrefix,
	})
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
	}
	a.cache = c

	var searcher images.Searcher
	if client := images.NewClient(images.ClientConfig{
		BaseURL: cfg.Images.BaseURL,
		APIKey:  cfg.Images.APIKey,
		Timeout: cfg.Images.Timeout,
	}); client != nil {
		searcher = client
	}
	imageService := images.NewService(searcher,
		images.WithCache(c, cfg.Cache.KeyPrefix, cfg.Cache.ImageTTL),
		images.WithLogger(log),
	)

	engineOpts := []orchestrator.Option{
		orchestrator.WithParser(parser.New(parserOpts...)),
		orchestrator.WithImages(imageService),
		orchestrator.WithLogger(log),
		orchestrator.WithIntentCache(c, cfg.Cache.KeyPrefix, cfg.Cache.IntentTTL),
	}
	if a.metrics != nil {
		engineOpts = append(engineOpts, orchestrator.WithMetrics(a.metrics))
	}
	a.engine = orchestrator.New(a.router, engineConfig(cfg.Generation), engineOpts...)
	return a
}

// Close releases the cache
func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close failed", zap.Error(err))
	}
}

// buildClients creates a client for every enabled provider in fallback order
func buildClients(cfg *config.Config) []ai.Client {
	var clients []ai.Client
	for _, p := range cfg.Chain() {
		cc := cfg.ClientConfig(p)
		switch p {
		case ai.ProviderClaude:
			clients = append(clients, ai.NewClaudeClient(cc))
		case ai.ProviderOpenAI:
			clients = append(clients, ai.NewOpenAIClient(cc))
		case ai.ProviderGemini:
			clients = append(clients, ai.NewGeminiClient(cc))
		case ai.ProviderGrok:
			clients = append(clients, ai.NewGrokClient(cc))
		case ai.ProviderOllama:
			clients = append(clients, ai.NewOllamaClient(cc))
		}
	}
	return clients
}

func engineConfig(g config.GenerationConfig) orchestrator.Config {
	return orchestrator.Config{
		MaxTokens:          g.MaxTokens,
		Temperature:        g.Temperature,
		PhaseTimeout:       g.PhaseTimeout,
		PhaseDelay:         g.PhaseDelay,
		FoundationAttempts: g.FoundationAttempts,
		DefaultVariants:    g.DefaultVariants,
		MaxVariants:        g.MaxVariants,
		VariantConcurrency: g.VariantConcurrency,
		AIDesign:           g.AIDesign,
	}
}
