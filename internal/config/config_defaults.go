package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 0)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.maxTokens", 900)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Narrative operation defaults
	v.SetDefault("ai.narrative.provider", "gemini")
	v.SetDefault("ai.narrative.model", "")
	v.SetDefault("ai.narrative.timeout", 75*time.Second)
	v.SetDefault("ai.narrative.apiKey", "")
	v.SetDefault("ai.narrative.maxRetries", 0)
	v.SetDefault("ai.narrative.temperature", 0.2) // Low temperature for grounded advice
	v.SetDefault("ai.narrative.maxTokens", 900)
	v.SetDefault("ai.narrative.useSystemPrompts", true)

	v.SetDefault("ai.narrative.circuitBreaker.enabled", true)
	v.SetDefault("ai.narrative.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.narrative.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.narrative.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.narrative.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.narrative.circuitBreaker.failureThreshold", 0.6)

	// Embedding model used by the gemini embedder
	v.SetDefault("ai.embedding.model", "gemini-embedding-001")
	v.SetDefault("ai.embedding.dimensions", 768)
	v.SetDefault("ai.embedding.apiKey", "")

	// Knowledge base
	v.SetDefault("knowledge.dataDir", "data")
	v.SetDefault("knowledge.rolesDir", "")
	v.SetDefault("knowledge.indexPath", ".skillgap/index.db")
	v.SetDefault("knowledge.embedder", EmbedderHash)
	v.SetDefault("knowledge.hashDimensions", 4096)
	v.SetDefault("knowledge.chunkSize", 900)
	v.SetDefault("knowledge.chunkOverlap", 120)
	v.SetDefault("knowledge.retrievalK", 4)
	v.SetDefault("knowledge.workers", 4)
	v.SetDefault("knowledge.watch", false)
	v.SetDefault("knowledge.watchDebounce", 2*time.Second)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // narrative generation can be slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB, CVs are often scanned PDFs

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "skillgap")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackGapSizes", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackRetrievals", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackIndexBuilds", true)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
