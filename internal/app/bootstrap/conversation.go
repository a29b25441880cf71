package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
	appconfig "github.com/Rocketman2178/kairo-platform/internal/config"
	"github.com/Rocketman2178/kairo-platform/internal/conversation"
	"github.com/Rocketman2178/kairo-platform/internal/matching"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/internal/waitlist"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// BuildLLMClient assembles the phrasing LLM chain: Bedrock primary with an
// optional Gemini fallback. Returns nil when no model is configured, in which
// case every reply comes from the deterministic templates.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) conversation.LLMClient {
	var primary conversation.LLMClient
	if cfg.BedrockModelID != "" {
		primary = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		logger.Info("bedrock LLM enabled", "model", cfg.BedrockModelID)
	}

	var fallback conversation.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			fallback = gemini
			logger.Info("gemini LLM enabled", "model", cfg.GeminiModelID)
		}
	}

	switch {
	case primary != nil && fallback != nil:
		return conversation.NewFallbackLLMClient(primary, fallback, logger.Logger)
	case primary != nil:
		return primary
	case fallback != nil:
		return fallback
	default:
		logger.Warn("no LLM configured; replies use deterministic templates")
		return nil
	}
}

// BuildConversationEngine wires the full registration assistant: matching,
// catalog, waitlist, Redis conversation state and LLM phrasing.
func BuildConversationEngine(
	ctx context.Context,
	cfg *appconfig.Config,
	matcher *matching.Engine,
	repo catalog.Repository,
	wl *waitlist.Service,
	redisClient *redis.Client,
	llm conversation.LLMClient,
	logger *logging.Logger,
	m *metrics.MatchingMetrics,
) (*conversation.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("bootstrap: redis is required for conversation state")
	}
	if logger == nil {
		logger = logging.Default()
	}
	_ = ctx

	store := conversation.NewHistoryStore(redisClient, nil)
	phraser := conversation.NewPhraser(llm, cfg.BedrockModelID, cfg.LLMTimeout, logger, m)

	return conversation.NewEngine(matcher, repo, wl, store, phraser, logger,
		conversation.WithEngineMetrics(m),
	), nil
}
