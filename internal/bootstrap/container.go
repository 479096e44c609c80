package bootstrap

import (
	"context"
	"time"

	"ai-novelwriter-be/internal/config"
	"ai-novelwriter-be/internal/controller"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/contract"
	"ai-novelwriter-be/internal/repository/implementation"
	"ai-novelwriter-be/internal/repository/memory"
	"ai-novelwriter-be/internal/service"
	"ai-novelwriter-be/pkg/embedding"
	"ai-novelwriter-be/pkg/embedding/jina"
	"ai-novelwriter-be/pkg/events"
	pktNats "ai-novelwriter-be/pkg/nats"
	"ai-novelwriter-be/pkg/storycontext"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const containerModule = "Bootstrap"

type Container struct {
	Logger logger.ILogger

	// Controllers
	MemoryController  controller.IMemoryController
	ContextController controller.IContextController

	// Background Services (Exposed for main.go to run)
	IndexerService service.IIndexerService

	Store    *vectorstore.Store
	Injector *storycontext.Injector

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

// EmbeddingModel is EMBEDDING_MODEL when set, otherwise the selected provider's own default.
func EmbeddingModel(cfg *config.Config) string {
	if cfg.Ai.EmbeddingModel != "" {
		return cfg.Ai.EmbeddingModel
	}
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		return embedding.DefaultGeminiModel
	case "openai":
		return embedding.DefaultOpenAIModel
	case "jina":
		return jina.DefaultModel
	default:
		return embedding.DefaultOllamaModel
	}
}

// NewEmbeddingProvider picks the provider named in config and wraps it with retries.
func NewEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	model := EmbeddingModel(cfg)

	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		gemini := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		gemini.Model = model
		if cfg.Ai.GeminiBaseURL != "" {
			gemini.BaseURL = cfg.Ai.GeminiBaseURL
		}
		provider = gemini
	case "openai":
		provider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.OpenAIBaseURL, model)
	case "jina":
		provider = jina.NewJinaProvider(cfg.Keys.Jina, model).WithBaseURL(cfg.Ai.JinaBaseURL)
	default:
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, model)
	}

	retry := embedding.DefaultRetryConfig()
	retry.MaxRetries = cfg.Ai.RetryAttempts
	return embedding.NewRetryingProvider(provider, retry)
}

func newRedisClient(cfg *config.Config, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn(containerModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(containerModule, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	return rdb
}

// NewContainer wires the application. A nil db leaves the vector store
// unavailable and serves projects from an empty in-memory repository.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Persistence
	var vectorRepo contract.VectorRecordRepository
	var projectRepo contract.ProjectRepository = memory.NewProjectRepository()
	if db != nil {
		vectorRepo = implementation.NewVectorRecordRepository(db, sysLogger)
		projectRepo = implementation.NewProjectRepository(db, sysLogger)
	} else {
		sysLogger.Warn(containerModule, "No database configured, vector store is unavailable", nil)
	}

	embeddingProvider := NewEmbeddingProvider(cfg)
	embeddingModel := EmbeddingModel(cfg)
	sysLogger.Info(containerModule, "Embedding provider selected", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"model":    embeddingModel,
	})

	c.Store = vectorstore.New(vectorRepo, embeddingProvider, embeddingModel, sysLogger)

	// 2. Context cache
	var cache storycontext.ContextCache
	if cfg.Context.CacheBackend == "redis" {
		c.rdb = newRedisClient(cfg, sysLogger)
		cache = storycontext.NewRedisContextCache(c.rdb, cfg.Context.CacheTTL, sysLogger)
	} else {
		cache = storycontext.NewMemoryContextCache(cfg.Context.CacheTTL)
	}
	c.Injector = storycontext.NewInjector(storycontext.NewExtractor(nil), cache, sysLogger)

	// 3. Event Bus
	c.pubSub = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	var publisherService service.IPublisherService = service.NewPublisherService(cfg.App.EntityTopic, c.pubSub)
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(context.Background(), cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(containerModule, "Failed to connect to NATS Publisher, using in-process bus", map[string]interface{}{"error": err.Error()})
		} else {
			c.natsPub = natsPub
			publisherService = natsPub
		}
		natsSub, err := pktNats.NewSubscriber(context.Background(), cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(containerModule, "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			c.natsSub = natsSub
		}
	}

	// 4. Services
	c.IndexerService = service.NewIndexerService(c.pubSub, cfg.App.EntityTopic, c.Store, c.Injector, sysLogger)
	memoryService := service.NewMemoryService(c.Store, publisherService, c.Injector, cfg.Search.Threshold, cfg.Search.Limit)
	contextService := service.NewContextService(projectRepo, c.Store, c.Injector, cfg.Context.MaxTokens, cfg.Search.Threshold, sysLogger)

	// 5. Controllers
	c.MemoryController = controller.NewMemoryController(memoryService)
	c.ContextController = controller.NewContextController(contextService)

	return c
}

// Start runs the indexer on the in-process bus and, when configured, on NATS.
func (c *Container) Start(ctx context.Context) error {
	if err := c.IndexerService.Consume(ctx); err != nil {
		return err
	}
	if c.natsSub != nil {
		subject := events.SubjectPrefix + "entity.>"
		if err := c.natsSub.Subscribe(ctx, subject, "vector-indexer", c.IndexerService.HandleEvent); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.pubSub != nil {
		_ = c.pubSub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
