package app

import (
	"context"
	"fmt"

	"github.com/raine/contractor-pro/internal/config"
	"github.com/raine/contractor-pro/internal/job"
	"github.com/raine/contractor-pro/internal/llm"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/raine/contractor-pro/internal/storage"
	"github.com/rs/zerolog/log"
)

// Services bundles the collaborators built from configuration.
type Services struct {
	Estimator  llm.Estimator
	Visualizer llm.Visualizer
	Device     photo.Device
	Processor  *job.Processor

	cache storage.EstimateCache
}

// NewServices builds the estimator, visualizer, capture device and job
// processor described by cfg. Close must be called to release the cache.
func NewServices(ctx context.Context, cfg config.Config) (*Services, error) {
	downloader := photo.NewDownloader()
	loader := photo.NewLoader(downloader)
	s := &Services{Device: photo.DeviceFor(cfg.Capture.Source, downloader)}

	if cfg.MockMode {
		s.Estimator = llm.NewMockEstimator(cfg.Mock.EstimateDelay)
		s.Visualizer = llm.NewMockVisualizer(cfg.Mock.RenderDelay)
		log.Info().
			Dur("estimateDelay", cfg.Mock.EstimateDelay).
			Dur("renderDelay", cfg.Mock.RenderDelay).
			Msg("using mock AI services")
	} else {
		client, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		s.Estimator = llm.NewGeminiEstimator(client, cfg.Gemini.EstimateModel, loader)
		s.Visualizer = llm.NewGeminiVisualizer(client, cfg.Gemini.ImageModel, loader)
		log.Info().
			Str("estimateModel", cfg.Gemini.EstimateModel).
			Str("imageModel", cfg.Gemini.ImageModel).
			Msg("gemini services initialized")
	}

	if cfg.Cache.Path != "" {
		store, err := storage.NewSQLiteStore(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize estimate cache: %w", err)
		}
		s.cache = store
		s.Estimator = llm.NewCachedEstimator(s.Estimator, store, loader)
		log.Info().Str("path", cfg.Cache.Path).Msg("estimate caching enabled")
	}

	s.Processor = job.NewProcessor(s.Estimator, s.Visualizer, job.Options{ServiceTimeout: cfg.ServiceTimeout})
	return s, nil
}

// Close releases the estimate cache, if any.
func (s *Services) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
