package app

import (
	"strings"
	"time"

	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
	"github.com/RakMan09/refund-returns-agent/internal/utils"
)

type Config struct {
	Port               string
	AllowedOrigins     []string
	PolicyRulesPath    string
	EvidenceStorageDir string
	EvidenceCatalogDir string
	EvidenceAnomalyDir string
	ToolCallTimeout    time.Duration
	ToolServerURL      string
	UseRedisTurnLock   bool
	SeedDemoOrders     bool
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	origins := utils.GetEnv("ALLOWED_ORIGINS", "", log)
	rulesPath := utils.GetEnv("POLICY_RULES_PATH", "", log)
	storageDir := utils.GetEnv("EVIDENCE_STORAGE_DIR", "data/evidence", log)
	catalogDir := utils.GetEnv("EVIDENCE_CATALOG_DIR", "data/reference/catalog", log)
	anomalyDir := utils.GetEnv("EVIDENCE_ANOMALY_DIR", "data/reference/anomaly", log)
	timeoutSeconds := utils.GetEnvAsInt("TOOL_CALL_TIMEOUT_SECONDS", 15, log)
	toolServerURL := utils.GetEnv("TOOL_SERVER_URL", "", log)
	useRedisLock := utils.GetEnv("TURN_LOCK_BACKEND", "memory", log) == "redis"
	seed := utils.GetEnv("SEED_DEMO_ORDERS", "true", log) == "true"

	var allowedOrigins []string
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	return Config{
		Port:               port,
		AllowedOrigins:     allowedOrigins,
		PolicyRulesPath:    rulesPath,
		EvidenceStorageDir: storageDir,
		EvidenceCatalogDir: catalogDir,
		EvidenceAnomalyDir: anomalyDir,
		ToolCallTimeout:    time.Duration(timeoutSeconds) * time.Second,
		ToolServerURL:      toolServerURL,
		UseRedisTurnLock:   useRedisLock,
		SeedDemoOrders:     seed,
	}
}
