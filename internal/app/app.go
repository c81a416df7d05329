package app

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/RakMan09/refund-returns-agent/internal/clients/redis"
	"github.com/RakMan09/refund-returns-agent/internal/conversation"
	"github.com/RakMan09/refund-returns-agent/internal/data/db"
	"github.com/RakMan09/refund-returns-agent/internal/data/repos"
	evscore "github.com/RakMan09/refund-returns-agent/internal/evidence"
	"github.com/RakMan09/refund-returns-agent/internal/http/handlers"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
	"github.com/RakMan09/refund-returns-agent/internal/policy"
	"github.com/RakMan09/refund-returns-agent/internal/server"
	"github.com/RakMan09/refund-returns-agent/internal/tools"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Router *gin.Engine
	Cfg    Config
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	dbService, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	if cfg.SeedDemoOrders {
		if err := db.SeedOrdersIfEmpty(theDB); err != nil {
			log.Warn("Demo order seeding failed", "error", err)
		}
	}

	log.Info("Wiring repos...")
	orderRepo := repos.NewOrderRepo(theDB, log)
	sessionRepo := repos.NewSessionRepo(theDB, log)
	messageRepo := repos.NewMessageRepo(theDB, log)
	returnRepo := repos.NewReturnRepo(theDB, log)
	labelRepo := repos.NewLabelRepo(theDB, log)
	escalationRepo := repos.NewEscalationRepo(theDB, log)
	evidenceRepo := repos.NewEvidenceRepo(theDB, log)
	validationRepo := repos.NewValidationRepo(theDB, log)
	toolCallLogRepo := repos.NewToolCallLogRepo(theDB, log)

	rules, err := policy.LoadRules(cfg.PolicyRulesPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load policy rules: %w", err)
	}
	engine := policy.NewEngine(rules)
	validator := evscore.NewValidator(cfg.EvidenceCatalogDir, cfg.EvidenceAnomalyDir)

	local := tools.NewLocalGateway(log, tools.LocalGatewayConfig{
		Orders:      orderRepo,
		Sessions:    sessionRepo,
		Messages:    messageRepo,
		Returns:     returnRepo,
		Labels:      labelRepo,
		Escalations: escalationRepo,
		Evidence:    evidenceRepo,
		Validations: validationRepo,
		Audit:       toolCallLogRepo,
		Validator:   validator,
		Policy:      engine,
		StorageDir:  cfg.EvidenceStorageDir,
		CallTimeout: cfg.ToolCallTimeout,
	})

	// The orchestrator can point at a remote tool server; the local
	// catalog is always served either way so this process can be that
	// remote end for another one.
	var gateway tools.Gateway = local
	if cfg.ToolServerURL != "" {
		httpClient := &http.Client{Timeout: cfg.ToolCallTimeout + 5*time.Second}
		gateway = tools.NewHTTPGateway(log, httpClient, cfg.ToolServerURL)
	}

	var locker conversation.TurnLocker = conversation.NewKeyedMutex()
	if cfg.UseRedisTurnLock {
		redisLocker, err := redis.NewSessionLocker(log)
		if err != nil {
			log.Warn("Redis turn lock init failed, falling back to in-process lock", "error", err)
		} else {
			locker = redisLocker
		}
	}

	flow := conversation.NewManager(log, gateway, conversation.NewKeywordGuardrails(), locker)

	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		ChatHandler:    handlers.NewChatHandler(flow),
		ToolsHandler:   handlers.NewToolsHandler(local),
		HealthHandler:  handlers.NewHealthHandler(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	return &App{
		Log:    log,
		DB:     theDB,
		Router: router,
		Cfg:    cfg,
	}, nil
}
