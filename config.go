package main

import (
	"os"
	"strconv"
	"time"
)

type config struct {
	Port            string
	MaxMessageSize  int64
	MaxRoomMembers  int
	SendBuffer      int
	ShutdownTimeout time.Duration
}

func defaultConfig() config {
	return config{
		Port:            "8080",
		MaxMessageSize:  1 << 20,
		MaxRoomMembers:  64,
		SendBuffer:      256,
		ShutdownTimeout: 10 * time.Second,
	}
}

// loadConfig reads the environment over defaults. Unparseable or
// non-positive values keep the default.
func loadConfig() config {
	cfg := defaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if v := os.Getenv("MAX_MESSAGE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxMessageSize = n
		}
	}
	if v := os.Getenv("MAX_ROOM_MEMBERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRoomMembers = n
		}
	}
	if v := os.Getenv("SEND_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SendBuffer = n
		}
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ShutdownTimeout = time.Duration(n) * time.Second
		}
	}

	return cfg
}
