package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=core_banking_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultChannelID = "LedgerGateway"
const defaultChannelKey = "LedgerGatewayKey001"
const defaultDailyTransferLimit = "10000.00"
const defaultRapidTransferThreshold = 5
const defaultRapidTransferWindowMinutes = 60

type Config struct {
	DatabaseDSN   string
	MigrationsDir string
	HTTPAddr      string
	ChannelID     string
	// ChannelKeyHash is the bcrypt hash the auth middleware verifies the
	// presented channel key against. Supplied via CHANNEL_KEY_HASH, or
	// derived at load time when only a plain CHANNEL_KEY is configured.
	ChannelKeyHash []byte

	DailyTransferLimit         decimal.Decimal
	RapidTransferThreshold     int
	RapidTransferWindowMinutes int
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("config no .env file found, using process environment", nil)
	}

	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}

	channelID := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if channelID == "" {
		channelID = defaultChannelID
	}

	channelKeyHash, err := loadChannelKeyHash()
	if err != nil {
		return Config{}, err
	}

	dailyLimit, err := loadDecimal("DAILY_TRANSFER_LIMIT", defaultDailyTransferLimit)
	if err != nil {
		return Config{}, err
	}

	rapidThreshold, err := loadInt("RAPID_TRANSFER_THRESHOLD", defaultRapidTransferThreshold)
	if err != nil {
		return Config{}, err
	}

	rapidWindow, err := loadInt("RAPID_TRANSFER_WINDOW_MINUTES", defaultRapidTransferWindowMinutes)
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseDSN:                normalizeConnectionString(conn),
		MigrationsDir:              filepath.Join("src", "migrations"),
		HTTPAddr:                   httpAddr,
		ChannelID:                  channelID,
		ChannelKeyHash:             channelKeyHash,
		DailyTransferLimit:         dailyLimit,
		RapidTransferThreshold:     rapidThreshold,
		RapidTransferWindowMinutes: rapidWindow,
	}, nil
}

func loadChannelKeyHash() ([]byte, error) {
	if hash := strings.TrimSpace(os.Getenv("CHANNEL_KEY_HASH")); hash != "" {
		return []byte(hash), nil
	}

	key := strings.TrimSpace(os.Getenv("CHANNEL_KEY"))
	if key == "" {
		key = defaultChannelKey
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash channel key: %w", err)
	}
	return hashed, nil
}

func loadDecimal(name, fallback string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		raw = fallback
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", name, err)
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%s must be greater than zero", name)
	}
	return value, nil
}

func loadInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", name)
	}
	return value, nil
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
