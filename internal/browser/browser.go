// Package browser connects the solver to live pages in a headless Chrome
// driven through Rod, and to static HTML files.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/abhisek/quizmate/internal/logger"
)

// Config configures the browser.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an already running Chrome.
	// Empty launches a local Chrome.
	RemoteURL string `yaml:"remote_url"`

	// Headless controls the local launcher. Ignored with RemoteURL.
	Headless bool `yaml:"headless"`

	// NavTimeout bounds navigation and initial load. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// DefaultConfig returns a headless local configuration.
func DefaultConfig() Config {
	return Config{Headless: true, NavTimeout: 30 * time.Second}
}

// Browser owns a Chrome connection.
type Browser struct {
	cfg  Config
	rod  *rod.Browser
	lnch *launcher.Launcher
	log  *logger.Logger
}

// Launch starts Chrome, or connects to cfg.RemoteURL.
func Launch(ctx context.Context, cfg Config, log *logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}

	b := &Browser{cfg: cfg, log: log}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Context(ctx).Headless(cfg.Headless)
		l = l.Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		log.Info("browser: launched local chrome", "headless", cfg.Headless)
	}

	r := rod.New().ControlURL(wsURL)
	if err := r.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.rod = r
	return b, nil
}

// Open creates a stealth tab and navigates it to pageURL.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Page, error) {
	p, err := stealth.Page(b.rod)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	if err := p.Context(navCtx).Navigate(pageURL); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.Context(navCtx).WaitLoad(); err != nil {
		b.log.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Page{rod: p, url: pageURL, log: b.log}, nil
}

// Close shuts down the connection and any Chrome this Browser launched.
func (b *Browser) Close() error {
	b.cleanup()
	return nil
}

func (b *Browser) cleanup() {
	if b.rod != nil {
		_ = b.rod.Close()
		b.rod = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
}
