package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLPort     string
	MySQLDatabase string

	RedisHost string

	RabbitURL            string
	NotificationExchange string

	ShippingURL     string
	ShippingTimeout time.Duration

	JWTSecret string

	QueueInterval    time.Duration
	QueueMaxAttempts int
}

func Default() Config {
	return Config{
		Env:                  "dev",
		Port:                 "8080",
		MySQLPort:            "3306",
		MySQLDatabase:        "shop",
		NotificationExchange: "notification.exchange",
		ShippingTimeout:      5 * time.Second,
		QueueInterval:        5 * time.Second,
		QueueMaxAttempts:     3,
	}
}

func FromEnv() Config {
	c := Default()
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("MYSQL_USER"); v != "" {
		c.MySQLUser = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.MySQLPassword = v
	}
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.MySQLHost = v
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		c.MySQLPort = v
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		c.MySQLDatabase = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitURL = v
	}
	if v := os.Getenv("NOTIFICATION_EXCHANGE"); v != "" {
		c.NotificationExchange = v
	}
	if v := os.Getenv("SHIPPING_SERVICE_URL"); v != "" {
		c.ShippingURL = v
	}
	if v := os.Getenv("SHIPPING_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.ShippingTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("QUEUE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.QueueInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("QUEUE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.QueueMaxAttempts = n
		}
	}
	return c
}
