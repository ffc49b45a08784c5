// Package config loads the gateway's process-wide configuration: flag
// defaults, then environment overrides, then validation.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds the gateway's session-core configuration.
type Config struct {
	// LogLevel controls the process-wide zerolog level.
	LogLevel string

	// DefaultContextCapacity bounds the number of terminations a freshly
	// created media context admits (spec default: 5).
	DefaultContextCapacity int

	// SessionIDLength is the number of hex characters a generated session
	// id carries (spec default: 16).
	SessionIDLength int

	// MediaEngineTick is the fixed-rate interval the media engine steps
	// every context's topology (one factory.process() per tick).
	MediaEngineTick time.Duration

	// RTPBindIP is the local address the RTP-termination factory stamps
	// onto every termination it allocates.
	RTPBindIP string

	// RTPPortMin and RTPPortMax bound the RTP/RTCP port pairs the
	// RTP-termination factory hands out.
	RTPPortMin int
	RTPPortMax int
}

// Load builds a Config from flag defaults overridden by environment
// variables.
func Load() *Config {
	cfg := &Config{
		DefaultContextCapacity: 5,
		SessionIDLength:        16,
		MediaEngineTick:        20 * time.Millisecond,
		RTPBindIP:              "0.0.0.0",
		RTPPortMin:             35000,
		RTPPortMax:             65000,
	}

	flag.StringVar(&cfg.LogLevel, "loglevel", "info", "log level (debug, info, warn, error)")
	flag.IntVar(&cfg.DefaultContextCapacity, "context-capacity", cfg.DefaultContextCapacity, "default terminations per media context")
	flag.IntVar(&cfg.SessionIDLength, "session-id-length", cfg.SessionIDLength, "hex characters in a generated session id")
	flag.DurationVar(&cfg.MediaEngineTick, "media-tick", cfg.MediaEngineTick, "media engine frame tick interval")
	flag.StringVar(&cfg.RTPBindIP, "rtp-bind-ip", cfg.RTPBindIP, "local address stamped onto allocated RTP terminations")
	flag.IntVar(&cfg.RTPPortMin, "rtp-port-min", cfg.RTPPortMin, "lowest RTP port handed out")
	flag.IntVar(&cfg.RTPPortMax, "rtp-port-max", cfg.RTPPortMax, "highest RTP port handed out")

	if !flag.Parsed() {
		flag.Parse()
	}

	if v := os.Getenv("MRCPGW_LOGLEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MRCPGW_CONTEXT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultContextCapacity = n
		}
	}
	if v := os.Getenv("MRCPGW_SESSION_ID_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionIDLength = n
		}
	}
	if v := os.Getenv("MRCPGW_MEDIA_TICK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MediaEngineTick = d
		}
	}
	if v := os.Getenv("MRCPGW_RTP_BIND_IP"); v != "" {
		cfg.RTPBindIP = v
	}
	if v := os.Getenv("MRCPGW_RTP_PORT_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RTPPortMin = n
		}
	}
	if v := os.Getenv("MRCPGW_RTP_PORT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RTPPortMax = n
		}
	}

	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.DefaultContextCapacity <= 0 {
		c.DefaultContextCapacity = 5
	}
	if c.SessionIDLength <= 0 || c.SessionIDLength > 32 {
		c.SessionIDLength = 16
	}
	if c.MediaEngineTick <= 0 {
		c.MediaEngineTick = 20 * time.Millisecond
	}
	if c.RTPBindIP == "" {
		c.RTPBindIP = "0.0.0.0"
	}
	if c.RTPPortMin <= 0 || c.RTPPortMax <= c.RTPPortMin {
		c.RTPPortMin, c.RTPPortMax = 35000, 65000
	}
}
