// Package browser drives the Cronometer custom-foods page over the Chrome
// DevTools protocol. It exposes the page's nutrient table as an
// autofill.Registry and shows pass results as an in-page toast.
package browser

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/common"
)

const (
	// DefaultPageMatch identifies the custom-foods route.
	DefaultPageMatch = "custom-foods"
	// readyPoll is the retry interval while waiting for the form to render.
	readyPoll = 500 * time.Millisecond
)

// Page is a connection to a browser holding (or about to hold) the form page.
type Page struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	match    string
	keyNav   bool
	logger   *slog.Logger

	mu   sync.Mutex
	page *rod.Page
}

// Connect attaches to the browser at cfg.DebuggerURL, or launches one when no
// debugger URL is configured.
func Connect(ctx context.Context, cfg common.BrowserConfig, logger *slog.Logger) (*Page, error) {
	if logger == nil {
		logger = slog.Default()
	}
	match := cfg.PageMatch
	if match == "" {
		match = DefaultPageMatch
	}

	p := &Page{match: match, keyNav: cfg.KeyboardNav, logger: logger}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(cfg.Headless)
		if cfg.ChromeBin != "" {
			l = l.Bin(cfg.ChromeBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, common.NewAppError(common.CodeBrowser, "failed to launch browser", err)
		}
		p.launcher = l
		controlURL = u
		logger.Info("browser.launched", "headless", cfg.Headless, "bin", cfg.ChromeBin)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		p.cleanup()
		return nil, common.NewAppError(common.CodeBrowser, "failed to connect to browser", err)
	}
	p.browser = b
	logger.Info("browser.connected", "url", redactControlURL(controlURL))
	return p, nil
}

// Close disconnects from the browser, killing it if Connect launched it.
func (p *Page) Close() error {
	var err error
	if p.launcher != nil && p.browser != nil {
		err = p.browser.Close()
	}
	p.cleanup()
	return err
}

func (p *Page) cleanup() {
	if p.launcher != nil {
		p.launcher.Kill()
		p.launcher.Cleanup()
	}
}

// Find locates an open form page with at least one field row. It does not
// wait; ErrNoFormPage is returned when none is open.
func (p *Page) Find(ctx context.Context) (*rod.Page, error) {
	if pg := p.current(); pg != nil {
		if ok, _ := p.ready(ctx, pg); ok {
			return pg, nil
		}
		p.setCurrent(nil)
	}

	pages, err := p.browser.Context(ctx).Pages()
	if err != nil {
		return nil, common.NewAppError(common.CodeBrowser, "failed to list pages", err)
	}
	for _, pg := range pages {
		ok, err := p.ready(ctx, pg)
		if err != nil {
			p.logger.Debug("browser.page.skip", "error", err)
			continue
		}
		if ok {
			p.setCurrent(pg)
			if p.keyNav {
				if err := InstallKeyboardNav(ctx, pg); err != nil {
					p.logger.Warn("browser.keynav.failed", "error", err)
				}
			}
			return pg, nil
		}
	}
	return nil, common.NewAppError(common.CodeBrowser, "no open page matches "+p.match, common.ErrNoFormPage)
}

// WaitForFormPage polls until a matching page shows the nutrient table or ctx
// ends.
func (p *Page) WaitForFormPage(ctx context.Context) (*rod.Page, error) {
	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()
	for {
		pg, err := p.Find(ctx)
		if err == nil {
			return pg, nil
		}
		if !common.HasCode(err, common.CodeBrowser) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, common.WrapError(err, "form page not ready")
		case <-ticker.C:
		}
	}
}

// Resolve waits up to timeout for the form page and returns its registry.
func (p *Page) Resolve(ctx context.Context, timeout time.Duration) (autofill.Registry, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	pg, err := p.WaitForFormPage(ctx)
	if err != nil {
		return nil, err
	}
	return NewRegistry(pg, p.logger), nil
}

// Notifier shows a toast on whichever form page is current.
func (p *Page) Notifier() autofill.Notifier {
	return autofill.NotifierFunc(func(message string) {
		pg := p.current()
		if pg == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := ShowToast(ctx, pg, message); err != nil {
			p.logger.Warn("browser.toast.failed", "error", err)
		}
	})
}

func (p *Page) current() *rod.Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Page) setCurrent(pg *rod.Page) {
	p.mu.Lock()
	p.page = pg
	p.mu.Unlock()
}

func (p *Page) ready(ctx context.Context, pg *rod.Page) (bool, error) {
	info, err := pg.Context(ctx).Info()
	if err != nil {
		return false, err
	}
	if !isFormURL(info.URL, p.match) {
		return false, nil
	}
	ok, _, err := pg.Context(ctx).Has(rowSelector)
	return ok, err
}

// isFormURL reports whether the page URL (path or hash) names the form route.
func isFormURL(raw, match string) bool {
	if match == "" {
		match = DefaultPageMatch
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.Contains(raw, match)
	}
	return strings.Contains(u.Fragment, match) || strings.Contains(u.Path, match)
}

func redactControlURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "<invalid>"
	}
	return parsed.Scheme + "://" + parsed.Host
}
