package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                       string
	AllowedOrigin              string
	DatabaseURL                string
	RedisAddr                  string
	RedisPassword              string
	RedisDB                    int
	AuthSecret                 string
	AccessTokenTTLMinutes      int
	StoreName                  string
	WhatsAppNumber             string
	DeliveryFeeCents           int64
	FreeDeliveryThresholdCents int64
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	deliveryFee, err := strconv.ParseInt(getEnv("DELIVERY_FEE_CENTS", "800"), 10, 64)
	if err != nil || deliveryFee < 0 {
		deliveryFee = 800
	}
	freeThreshold, err := strconv.ParseInt(getEnv("FREE_DELIVERY_THRESHOLD_CENTS", "8000"), 10, 64)
	if err != nil || freeThreshold < 0 {
		freeThreshold = 8000
	}

	cfg := Config{
		Port:                       getEnv("PORT", "8080"),
		AllowedOrigin:              getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:                os.Getenv("DATABASE_URL"),
		RedisAddr:                  os.Getenv("REDIS_ADDR"),
		RedisPassword:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                    redisDB,
		AuthSecret:                 strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:      tokenTTL,
		StoreName:                  getEnv("STORE_NAME", "Doce Encanto"),
		WhatsAppNumber:             getEnv("WHATSAPP_NUMBER", "5511999990000"),
		DeliveryFeeCents:           deliveryFee,
		FreeDeliveryThresholdCents: freeThreshold,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
