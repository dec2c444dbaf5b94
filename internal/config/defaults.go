package config

import (
	"runtime"
	"time"
)

const (
	defaultDebounce = 300 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
)

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Blog"
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}

	b := &cfg.Build
	if b.ContentDir == "" {
		b.ContentDir = "content/posts"
	}
	if b.TemplateDir == "" {
		b.TemplateDir = "templates"
	}
	if b.StaticDir == "" {
		b.StaticDir = "static"
	}
	if b.OutputDir == "" {
		b.OutputDir = "dist"
	}
	if b.CacheFile == "" {
		b.CacheFile = ".postforge/cache.bin"
	}
	if b.CacheCompression == "" {
		b.CacheCompression = CompressionZstd
	}
	if b.PostsPerPage <= 0 {
		b.PostsPerPage = 10
	}
	if b.PaginationWindow <= 0 {
		b.PaginationWindow = 5
	}
	if b.FeedLimit <= 0 {
		b.FeedLimit = 20
	}
	if b.HomeLimit <= 0 {
		b.HomeLimit = 10
	}
	if b.Workers <= 0 {
		b.Workers = runtime.NumCPU()
	}
	if b.HighlightStyle == "" {
		b.HighlightStyle = "github"
	}

	w := &cfg.Watch
	if w.Address == "" {
		w.Address = "127.0.0.1"
	}
	if w.Port == 0 {
		w.Port = 8080
	}
	if w.Debounce == "" {
		w.Debounce = defaultDebounce.String()
	}
	if w.MaxDelay == "" {
		w.MaxDelay = defaultMaxDelay.String()
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "postforge.pass"
	}
}
