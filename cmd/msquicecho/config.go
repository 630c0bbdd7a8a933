package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/OkutaniDaichi0106/gomsquic/msquic"
	"github.com/spf13/pflag"
)

type echoConfig struct {
	Mode     string
	Library  string
	ALPN     string
	Listen   string
	Addr     string
	Message  string
	LogLevel string

	CertHash string
	CertFile string
	KeyFile  string

	PeerBidiStreams uint16
	IdleTimeout     time.Duration
	ConnectTimeout  time.Duration
}

func defaultConfig() echoConfig {
	return echoConfig{
		Mode:            "server",
		ALPN:            "echo",
		Listen:          "0.0.0.0:4567",
		Addr:            "localhost:4567",
		Message:         "hello",
		LogLevel:        "info",
		PeerBidiStreams: 16,
		IdleTimeout:     30 * time.Second,
		ConnectTimeout:  5 * time.Second,
	}
}

type fileConfig struct {
	Mode            string `toml:"mode"`
	Library         string `toml:"library"`
	ALPN            string `toml:"alpn"`
	Listen          string `toml:"listen"`
	Addr            string `toml:"addr"`
	Message         string `toml:"message"`
	LogLevel        string `toml:"log_level"`
	CertHash        string `toml:"cert_hash"`
	CertFile        string `toml:"cert_file"`
	KeyFile         string `toml:"key_file"`
	PeerBidiStreams int    `toml:"peer_bidi_streams"`
	IdleTimeout     string `toml:"idle_timeout"`
	ConnectTimeout  string `toml:"connect_timeout"`
}

// loadConfigFile overlays the keys defined in the TOML file at path onto cfg.
func loadConfigFile(path string, cfg *echoConfig) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	strs := map[string]struct {
		dst *string
		src string
	}{
		"mode":      {&cfg.Mode, raw.Mode},
		"library":   {&cfg.Library, raw.Library},
		"alpn":      {&cfg.ALPN, raw.ALPN},
		"listen":    {&cfg.Listen, raw.Listen},
		"addr":      {&cfg.Addr, raw.Addr},
		"message":   {&cfg.Message, raw.Message},
		"log_level": {&cfg.LogLevel, raw.LogLevel},
		"cert_hash": {&cfg.CertHash, raw.CertHash},
		"cert_file": {&cfg.CertFile, raw.CertFile},
		"key_file":  {&cfg.KeyFile, raw.KeyFile},
	}
	for key, field := range strs {
		if meta.IsDefined(key) {
			*field.dst = strings.TrimSpace(field.src)
		}
	}

	if meta.IsDefined("peer_bidi_streams") {
		if raw.PeerBidiStreams < 0 || raw.PeerBidiStreams > 0xFFFF {
			return fmt.Errorf("peer_bidi_streams out of range: %d", raw.PeerBidiStreams)
		}
		cfg.PeerBidiStreams = uint16(raw.PeerBidiStreams)
	}

	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}

	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}

	return nil
}

// registerFlags binds the command line flags to cfg.
func registerFlags(fs *pflag.FlagSet, cfg *echoConfig) {
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "server or client")
	fs.StringVar(&cfg.Library, "library", cfg.Library, "path of the msquic shared library")
	fs.StringVar(&cfg.ALPN, "alpn", cfg.ALPN, "application protocol")
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "server listen address")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "client target address (host:port)")
	fs.StringVar(&cfg.Message, "message", cfg.Message, "client message")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.CertHash, "cert-hash", cfg.CertHash, "server certificate SHA-1 thumbprint (hex)")
	fs.StringVar(&cfg.CertFile, "cert-file", cfg.CertFile, "server certificate PEM file")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "server private key PEM file")
	fs.Uint16Var(&cfg.PeerBidiStreams, "peer-bidi-streams", cfg.PeerBidiStreams, "bidirectional streams a peer may open")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "connection idle timeout")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "client handshake timeout")
}

func (c echoConfig) validate() error {
	switch c.Mode {
	case "server", "client":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.ALPN == "" {
		return fmt.Errorf("alpn is required")
	}
	if c.Mode == "server" {
		if _, err := c.certificate(); err != nil {
			return err
		}
	}
	return nil
}

// certificate returns the server credential selected by the configuration.
func (c echoConfig) certificate() (msquic.Certificate, error) {
	switch {
	case c.CertHash != "":
		b, err := hex.DecodeString(strings.ReplaceAll(c.CertHash, ":", ""))
		if err != nil || len(b) != 20 {
			return nil, fmt.Errorf("cert_hash must be 20 hex encoded bytes")
		}
		var hash msquic.CertificateHash
		copy(hash[:], b)
		return hash, nil
	case c.CertFile != "" && c.KeyFile != "":
		return msquic.CertificateFile{CertificateFile: c.CertFile, PrivateKeyFile: c.KeyFile}, nil
	default:
		return nil, fmt.Errorf("server needs cert_hash or cert_file and key_file")
	}
}

func (c echoConfig) sessionConfig() *msquic.SessionConfig {
	return &msquic.SessionConfig{
		ALPN:                c.ALPN,
		PeerBidiStreamCount: c.PeerBidiStreams,
		IdleTimeout:         c.IdleTimeout,
	}
}

// resolveConfig layers the defaults, the config file at path and the flags
// set on the command line, in that order.
func resolveConfig(fs *pflag.FlagSet, flags echoConfig, path string) (echoConfig, error) {
	cfg := defaultConfig()
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return echoConfig{}, err
		}
	}

	overrides := map[string]func(){
		"mode":              func() { cfg.Mode = flags.Mode },
		"library":           func() { cfg.Library = flags.Library },
		"alpn":              func() { cfg.ALPN = flags.ALPN },
		"listen":            func() { cfg.Listen = flags.Listen },
		"addr":              func() { cfg.Addr = flags.Addr },
		"message":           func() { cfg.Message = flags.Message },
		"log-level":         func() { cfg.LogLevel = flags.LogLevel },
		"cert-hash":         func() { cfg.CertHash = flags.CertHash },
		"cert-file":         func() { cfg.CertFile = flags.CertFile },
		"key-file":          func() { cfg.KeyFile = flags.KeyFile },
		"peer-bidi-streams": func() { cfg.PeerBidiStreams = flags.PeerBidiStreams },
		"idle-timeout":      func() { cfg.IdleTimeout = flags.IdleTimeout },
		"connect-timeout":   func() { cfg.ConnectTimeout = flags.ConnectTimeout },
	}
	for name, apply := range overrides {
		if fs.Changed(name) {
			apply()
		}
	}

	if err := cfg.validate(); err != nil {
		return echoConfig{}, err
	}
	return cfg, nil
}
