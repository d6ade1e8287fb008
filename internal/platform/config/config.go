package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	PacketModeFixed   = "fixed"
	PacketModeGeneral = "general"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	// PacketMode is "fixed" (every packet escrows FixedPacketAmount) or
	// "general" (any positive amount).
	PacketMode         string
	FixedPacketAmount  uint64
	BaseUnitDecimals   int32
	DefaultPacketCount int
	IdempotencyTTL     time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	EnableActivityFeed bool
	AutoMigrate        bool
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(envFiles()...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "red-packet"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	mode := strings.ToLower(strings.TrimSpace(os.Getenv("PACKET_MODE")))
	switch mode {
	case "":
		mode = PacketModeFixed
	case PacketModeFixed, PacketModeGeneral:
	default:
		return Config{}, fmt.Errorf("PACKET_MODE must be %q or %q, got %q", PacketModeFixed, PacketModeGeneral, mode)
	}

	decimals, err := envInt("BASE_UNIT_DECIMALS", 18)
	if err != nil {
		return Config{}, err
	}
	if decimals < 0 || decimals > 19 {
		return Config{}, fmt.Errorf("BASE_UNIT_DECIMALS must be between 0 and 19, got %d", decimals)
	}

	fixedAmount, err := ParseMajorUnits(envString("FIXED_PACKET_AMOUNT", "0.0001"), int32(decimals))
	if err != nil {
		return Config{}, fmt.Errorf("FIXED_PACKET_AMOUNT: %w", err)
	}

	defaultCount, err := envInt("DEFAULT_PACKET_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	if defaultCount < 1 || defaultCount > 100 {
		return Config{}, fmt.Errorf("DEFAULT_PACKET_COUNT must be between 1 and 100, got %d", defaultCount)
	}
	batchSize, err := envInt("OUTBOX_BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	idempotencyTTL, err := envDuration("IDEMPOTENCY_TTL", 7*24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		PacketMode:         mode,
		FixedPacketAmount:  fixedAmount,
		BaseUnitDecimals:   int32(decimals),
		DefaultPacketCount: defaultCount,
		IdempotencyTTL:     idempotencyTTL,

		OutboxPollInterval: pollInterval,
		OutboxBatchSize:    batchSize,
		EnableActivityFeed: envBool("ENABLE_ACTIVITY_FEED", true),
		AutoMigrate:        envBool("AUTO_MIGRATE", true),
	}, nil
}

// ParseMajorUnits converts a major-unit decimal such as "0.0001" into base
// units. Amounts with more fractional digits than decimals, non-positive
// amounts and amounts above the uint64 range are rejected.
func ParseMajorUnits(raw string, decimals int32) (uint64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if !value.IsPositive() {
		return 0, fmt.Errorf("amount %q must be positive", raw)
	}
	scaled := value.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d fractional digits", raw, decimals)
	}
	base := scaled.BigInt()
	if !base.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows base units", raw)
	}
	return base.Uint64(), nil
}

func envFiles() []string {
	if path := strings.TrimSpace(os.Getenv("ENV_FILE")); path != "" {
		return []string{path}
	}
	return []string{".env"}
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", name, err)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
