// Package browser provides stealth headless Chrome sessions for broker
// probing, social profile audits and opt-out form submission. Each Session
// wraps one browser tab; callers must Close it on every exit path.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// userAgents is a small pool of current desktop user-agent strings. One is
// picked at random per session.
var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var viewports = [][2]int{
	{1920, 1080},
	{1680, 1050},
	{1536, 864},
}

// stealthScript runs before any page script and hides the usual automation
// fingerprints.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

const (
	// DefaultNavTimeout bounds a single page navigation.
	DefaultNavTimeout = 30 * time.Second

	minDelay = 2 * time.Second
	maxDelay = 5 * time.Second
)

// Session is one stealth browser tab. Implementations return an element-not-
// present condition as (false, nil) from SetValue/Click so callers can walk
// selector candidate lists without treating misses as failures.
type Session interface {
	Navigate(ctx context.Context, url string) error
	BodyText(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	SetValue(ctx context.Context, selector, value string) (bool, error)
	Click(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Opener creates a fresh Session. Scanners take an Opener rather than a
// Session so each scan gets its own tab and fingerprint.
type Opener func(ctx context.Context) (Session, error)

// NewOpener returns an Opener backed by headless Chrome.
func NewOpener(logger *zap.Logger) Opener {
	log := logger.Named("browser")
	return func(ctx context.Context) (Session, error) {
		return newChromeSession(ctx, log)
	}
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger
}

func newChromeSession(parent context.Context, logger *zap.Logger) (*chromeSession, error) {
	ua := userAgents[rand.Intn(len(userAgents))]
	vp := viewports[rand.Intn(len(viewports))]

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(ua),
		chromedp.WindowSize(vp[0], vp[1]),
		chromedp.Flag("lang", "en-US"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		emulation.SetTimezoneOverride("America/New_York"),
	)
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start session: %w", err)
	}

	logger.Debug("session started", zap.String("user_agent", ua), zap.Ints("viewport", []int{vp[0], vp[1]}))
	return &chromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	} else if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, DefaultNavTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) BodyText(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx, DefaultNavTimeout, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: body text: %w", err)
	}
	return text, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, DefaultNavTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: page html: %w", err)
	}
	return html, nil
}

// SetValue fills the first element matching selector. A selector with no
// match reports (false, nil) within a short wait.
func (s *chromeSession) SetValue(ctx context.Context, selector, value string) (bool, error) {
	present, err := s.present(ctx, selector)
	if err != nil || !present {
		return false, err
	}
	if err := s.run(ctx, DefaultNavTimeout, chromedp.SetValue(selector, value, chromedp.ByQuery)); err != nil {
		return false, fmt.Errorf("browser: set value %s: %w", selector, err)
	}
	return true, nil
}

func (s *chromeSession) Click(ctx context.Context, selector string) (bool, error) {
	present, err := s.present(ctx, selector)
	if err != nil || !present {
		return false, err
	}
	if err := s.run(ctx, DefaultNavTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return false, fmt.Errorf("browser: click %s: %w", selector, err)
	}
	return true, nil
}

// present polls the DOM once for selector instead of waiting for it to
// appear, so missing form fields do not eat the navigation timeout.
func (s *chromeSession) present(ctx context.Context, selector string) (bool, error) {
	var count int
	err := s.run(ctx, 5*time.Second,
		chromedp.Evaluate(fmt.Sprintf("document.querySelectorAll(%q).length", selector), &count),
	)
	if err != nil {
		return false, fmt.Errorf("browser: query %s: %w", selector, err)
	}
	return count > 0, nil
}

func (s *chromeSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, DefaultNavTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("browser: screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("browser: write screenshot: %w", err)
	}
	return nil
}

func (s *chromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

// Delay sleeps a uniform random interval between scans to avoid rate
// limiting. It returns early if ctx is cancelled.
func Delay(ctx context.Context) {
	d := minDelay + time.Duration(rand.Int63n(int64(maxDelay-minDelay)))
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
