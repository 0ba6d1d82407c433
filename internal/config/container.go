package config

import (
	"study-highlights/internal/cache"
	"study-highlights/internal/domain"
	"study-highlights/internal/infra/supabase"
	"study-highlights/internal/repository"
	"study-highlights/internal/service"
	"study-highlights/pkg/logger"
)

// Container holds all application dependencies. Handlers receive what they
// need from it instead of reaching for process-wide state.
type Container struct {
	Config              domain.Config
	Logger              domain.Logger
	SupabaseClient      domain.SupabaseClient
	HighlightRepository domain.HighlightRepository
	ContentRepository   domain.ContentRepository
	ContentCache        domain.ContentCache
	AuthService         domain.AuthService
	HighlightService    domain.HighlightService
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	// Initialize Supabase client
	supabaseClient := supabase.NewSupabaseClient(config, appLogger)
	if err := supabaseClient.Initialize(); err != nil {
		appLogger.Error("Supabase client not initialized", err)
	}

	// Initialize repositories
	highlightRepo := repository.NewHighlightRepository(supabaseClient, appLogger)
	contentRepo := repository.NewContentRepository(supabaseClient, appLogger)

	contentCache := newContentCache(config, appLogger)

	return &Container{
		Config:              config,
		Logger:              appLogger,
		SupabaseClient:      supabaseClient,
		HighlightRepository: highlightRepo,
		ContentRepository:   contentRepo,
		ContentCache:        contentCache,
		AuthService:         service.NewAuthService(supabaseClient, appLogger),
		HighlightService:    service.NewHighlightService(highlightRepo, contentRepo, contentCache, appLogger),
	}
}

func newContentCache(config domain.Config, appLogger domain.Logger) domain.ContentCache {
	if config.GetRedisURL() == "" {
		appLogger.Info("Content cache disabled")
		return cache.NopContentCache{}
	}
	contentCache, err := cache.NewRedisContentCache(config.GetRedisURL(), config.GetContentCacheTTL())
	if err != nil {
		appLogger.Warn("Content cache unavailable, continuing without it", "error", err)
		return cache.NopContentCache{}
	}
	appLogger.Info("Content cache enabled", "ttl", config.GetContentCacheTTL())
	return contentCache
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.ContentCache != nil {
		return c.ContentCache.Close()
	}
	return nil
}
