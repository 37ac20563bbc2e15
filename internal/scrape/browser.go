package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"bondpulse/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Login flow selectors.
const (
	loginPath        = "/login"
	loginInputCSS    = "div.el-input input.el-input__inner"
	passwordXPath    = `//input[@type="password"]`
	primaryBtnXPath  = `//button[contains(@class, "el-button--primary")]`
	loginSettleDelay = 3 * time.Second
)

// ChromeSession is the chromedp-backed Session implementation. One instance
// corresponds to one browser lifetime; the returned cleanup tears the browser
// down and must run on every exit path.
type ChromeSession struct {
	ctx context.Context
}

// NewChromeSession starts a browser and returns the live session plus its
// cleanup function.
func NewChromeSession(parent context.Context, cfg config.ScrapeConfig) (*ChromeSession, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	cleanup := func() {
		cancelCtx()
		cancelAlloc()
	}

	// Start the browser process eagerly so a broken Chrome install surfaces
	// here instead of mid-run.
	if err := chromedp.Run(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}

	return &ChromeSession{ctx: ctx}, cleanup, nil
}

// Login performs the scripted credential login against the portal. It is a
// boundary step: authentication happens once per session before collection.
func (s *ChromeSession) Login(portal config.PortalConfig) error {
	if portal.Login == "" || portal.Password == "" {
		return errors.New("portal credentials are not configured")
	}

	if err := s.Navigate(portal.BaseURL + loginPath); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := s.SendKeys(loginInputCSS, ByQuery, portal.Login); err != nil {
		return fmt.Errorf("enter login: %w", err)
	}
	s.Settle(time.Second)
	if err := s.SendKeys(passwordXPath, ByXPath, portal.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	s.Settle(time.Second)
	if err := s.Click(primaryBtnXPath, ByXPath); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	s.Settle(loginSettleDelay)
	return nil
}

func (s *ChromeSession) Navigate(url string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(url))
}

func (s *ChromeSession) Click(selector string, by By) error {
	return chromedp.Run(s.ctx, chromedp.Click(selector, queryOption(by)))
}

func (s *ChromeSession) SendKeys(selector string, by By, text string) error {
	return chromedp.Run(s.ctx, chromedp.SendKeys(selector, text, queryOption(by)))
}

func (s *ChromeSession) WaitClickable(selector string, by By, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx,
		chromedp.WaitVisible(selector, queryOption(by)),
		chromedp.WaitEnabled(selector, queryOption(by)),
	)
}

func (s *ChromeSession) ToggleIndexed(class string, index int) error {
	js := fmt.Sprintf(`(() => {
		const el = document.getElementsByClassName(%q)[%d];
		if (!el) return false;
		el.scrollIntoView(true);
		el.click();
		return true;
	})()`, class, index)

	var clicked bool
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return fmt.Errorf("toggle %s[%d]: %w", class, index, err)
	}
	if !clicked {
		return fmt.Errorf("toggle %s[%d]: element not found", class, index)
	}
	return nil
}

func (s *ChromeSession) Markup() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return html, nil
}

func (s *ChromeSession) Settle(d time.Duration) {
	_ = chromedp.Run(s.ctx, chromedp.Sleep(d))
}

func queryOption(by By) chromedp.QueryOption {
	if by == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
