// Package config provides firmware settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds all firmware configuration.
type Settings struct {
	LLM     LLMConfig
	Planner PlannerConfig
	Robot   RobotConfig
	MQTT    MQTTConfig
	Webhook WebhookConfig
	Storage StorageConfig
}

// LLMConfig holds reasoning-service provider configuration.
type LLMConfig struct {
	Provider       string
	Model          string
	MaxTokens      uint32
	Temperature    float64
	RequestTimeout time.Duration
}

// PlannerConfig holds planning-loop budgets and pacing.
type PlannerConfig struct {
	MaxIterations      int
	MaxPlanningTime    time.Duration
	IterationDelay     time.Duration
	ActionSettle       time.Duration
	MinRequestInterval time.Duration
}

// RobotConfig identifies the robot and its wiring.
type RobotConfig struct {
	ID      string
	Drivers string // "sim" or "gpio"

	// L298N motor controller inputs.
	PinIN1 string
	PinIN2 string
	PinIN3 string
	PinIN4 string

	// HC-SR04 ultrasonic ranger.
	PinTrigger string
	PinEcho    string
}

// MQTTConfig holds broker connection and topic settings.
type MQTTConfig struct {
	BrokerURL    string
	CommandTopic string
	StatusTopic  string
	Username     string
	Password     string
	QueueDepth   int
}

// WebhookConfig holds the optional HTTP event sink. An empty URL disables it.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// StorageConfig holds the mission log location. An empty path disables it.
type StorageConfig struct {
	Path string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from
// environment variables. Returns an error if the provider is unknown or
// environment variables contain invalid values.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 1024)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.3)
	if err != nil {
		return Settings{}, err
	}

	requestTimeout, err := getEnvDuration("LLM_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return Settings{}, err
	}

	maxIterations, err := getEnvInt("PLANNER_MAX_ITERATIONS", 10)
	if err != nil {
		return Settings{}, err
	}

	maxPlanningTime, err := getEnvDuration("PLANNER_MAX_TIME", 2*time.Minute)
	if err != nil {
		return Settings{}, err
	}

	iterationDelay, err := getEnvDuration("PLANNER_ITERATION_DELAY", 500*time.Millisecond)
	if err != nil {
		return Settings{}, err
	}

	actionSettle, err := getEnvDuration("PLANNER_ACTION_SETTLE", 250*time.Millisecond)
	if err != nil {
		return Settings{}, err
	}

	minRequestInterval, err := getEnvDuration("PLANNER_MIN_REQUEST_INTERVAL", time.Second)
	if err != nil {
		return Settings{}, err
	}

	queueDepth, err := getEnvInt("MQTT_QUEUE_DEPTH", 8)
	if err != nil {
		return Settings{}, err
	}

	webhookTimeout, err := getEnvDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return Settings{}, err
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	robotID := getEnvString("ROBOT_ID", "theseus")

	return Settings{
		LLM: LLMConfig{
			Provider:       provider,
			Model:          model,
			MaxTokens:      maxTokens,
			Temperature:    temperature,
			RequestTimeout: requestTimeout,
		},
		Planner: PlannerConfig{
			MaxIterations:      maxIterations,
			MaxPlanningTime:    maxPlanningTime,
			IterationDelay:     iterationDelay,
			ActionSettle:       actionSettle,
			MinRequestInterval: minRequestInterval,
		},
		Robot: RobotConfig{
			ID:         robotID,
			Drivers:    getEnvString("ROBOT_DRIVERS", "sim"),
			PinIN1:     getEnvString("ROBOT_PIN_IN1", "GPIO17"),
			PinIN2:     getEnvString("ROBOT_PIN_IN2", "GPIO27"),
			PinIN3:     getEnvString("ROBOT_PIN_IN3", "GPIO22"),
			PinIN4:     getEnvString("ROBOT_PIN_IN4", "GPIO23"),
			PinTrigger: getEnvString("ROBOT_PIN_TRIGGER", "GPIO5"),
			PinEcho:    getEnvString("ROBOT_PIN_ECHO", "GPIO6"),
		},
		MQTT: MQTTConfig{
			BrokerURL:    getEnvString("MQTT_BROKER", "tcp://localhost:1883"),
			CommandTopic: getEnvString("MQTT_COMMAND_TOPIC", robotID+"/commands"),
			StatusTopic:  getEnvString("MQTT_STATUS_TOPIC", robotID+"/status"),
			Username:     os.Getenv("MQTT_USERNAME"),
			Password:     os.Getenv("MQTT_PASSWORD"),
			QueueDepth:   queueDepth,
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("WEBHOOK_URL"),
			Timeout: webhookTimeout,
		},
		Storage: StorageConfig{
			Path: getEnvString("MISSION_DB", "theseus.db"),
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
