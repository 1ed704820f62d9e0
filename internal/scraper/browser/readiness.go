package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var (
	// ErrReadyTimeout means the document never reported a complete load
	// state within the budget.
	ErrReadyTimeout = errors.New("document load never completed")

	// ErrManualLoginNotConfirmed means the post-login home screen never
	// appeared within the wait budget. Fatal; the session does not retry.
	ErrManualLoginNotConfirmed = errors.New("manual login not confirmed")

	// ErrGatewayDetected marks a gateway error page. Recoverable inside the
	// login-confirmation loop; when the wait budget expires while a gateway
	// page is still on screen, it wraps the expiry error so callers can
	// tell a proxy outage apart from an operator who never logged in.
	ErrGatewayDetected = errors.New("gateway error page detected")
)

const readyStateJS = `() => document.readyState`

// gatewaySignatures are the phrases the application's front proxy emits on
// its intermittent post-login error pages.
var gatewaySignatures = []string{
	"gateway time-out",
	"gateway timeout",
	"504 gateway",
	"502 bad gateway",
	"proxy error",
	"service temporarily unavailable",
	"erro de gateway",
}

// gatewaySniffLimit bounds how much rendered markup is inspected.
const gatewaySniffLimit = 4096

// WaitReady blocks until document.readyState is "complete", polling with
// capped backoff up to the timeout.
func WaitReady(d Driver, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	backoff := 50 * time.Millisecond
	for {
		state, err := d.Eval(readyStateJS)
		if err == nil && state == "complete" {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrReadyTimeout, timeout)
		}
		time.Sleep(backoff)
		if backoff < 500*time.Millisecond {
			backoff *= 2
		}
	}
}

// DetectGatewayError reports whether the page the driver currently shows is
// one of the proxy's transient error pages, judged from title, url and the
// first few KB of markup.
func DetectGatewayError(title, url, source string) bool {
	if len(source) > gatewaySniffLimit {
		source = source[:gatewaySniffLimit]
	}

	haystacks := []string{strings.ToLower(title), strings.ToLower(url)}

	// Prefer the text of the snippet over raw markup so signature words
	// inside attribute values don't trip the check.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(source)); err == nil {
		haystacks = append(haystacks,
			strings.ToLower(doc.Find("title").Text()),
			strings.ToLower(doc.Find("h1").Text()),
			strings.ToLower(doc.Find("body").Text()),
		)
	} else {
		haystacks = append(haystacks, strings.ToLower(source))
	}

	for _, h := range haystacks {
		if h == "" {
			continue
		}
		for _, sig := range gatewaySignatures {
			if strings.Contains(h, sig) {
				return true
			}
		}
	}
	return false
}

// ConfirmLogin polls after authentication until the home menu locator
// matches somewhere on the page. Gateway error pages trigger a refresh and
// keep the loop going; if the budget still expires on one, the returned
// error also matches ErrGatewayDetected. The budget has a
// 5s floor because the application routinely takes several seconds to
// settle right after login.
func ConfirmLogin(d Driver, homeMenuExpr string, budget time.Duration, log *zap.Logger) error {
	const floor = 5 * time.Second
	if budget < floor {
		budget = floor
	}

	deadline := time.Now().Add(budget)
	sawGateway := false
	for {
		els, _ := sweep(d, homeMenuExpr, true)
		if len(els) > 0 {
			log.Info("login confirmed, home menu visible")
			return nil
		}

		title, _ := d.Title()
		url, _ := d.URL()
		source, _ := d.PageSource()
		sawGateway = DetectGatewayError(title, url, source)
		if sawGateway {
			log.Warn("gateway error page after login, refreshing",
				zap.String("title", title), zap.String("url", url))
			if err := d.Reload(); err != nil {
				log.Warn("refresh failed", zap.Error(err))
			}
		}

		if time.Now().After(deadline) {
			if sawGateway {
				return fmt.Errorf("%w within %s: %w", ErrManualLoginNotConfirmed, budget, ErrGatewayDetected)
			}
			return fmt.Errorf("%w within %s", ErrManualLoginNotConfirmed, budget)
		}
		time.Sleep(time.Second)
	}
}
