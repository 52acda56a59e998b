// internal/recording/login.go
package recording

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// LoginCandidate is a pair of selectors for a username and password field.
type LoginCandidate struct {
	UserSelector     string
	PasswordSelector string
}

// DefaultLoginCandidates are tried in order until one succeeds.
var DefaultLoginCandidates = []LoginCandidate{
	{UserSelector: "#username", PasswordSelector: "#password"},
	{UserSelector: "#email", PasswordSelector: "#password"},
	{UserSelector: `input[type="email"]`, PasswordSelector: `input[type="password"]`},
	{UserSelector: `input[name="username"]`, PasswordSelector: `input[name="password"]`},
}

const (
	submitSelector      = `button[type="submit"], input[type="submit"]`
	defaultPollInterval = 100 * time.Millisecond
)

var errFieldsNotFound = errors.New("login fields not found")

// LoginExecutor fills and submits a login form on the current page.
type LoginExecutor struct {
	logger     *zap.Logger
	controller schemas.BrowserController
	candidates []LoginCandidate
	timeout    time.Duration
	limiter    *rate.Limiter
	poll       time.Duration
}

// NewLoginExecutor creates an executor. timeout bounds each candidate;
// interval spaces successive candidates.
func NewLoginExecutor(logger *zap.Logger, controller schemas.BrowserController, timeout, interval time.Duration) *LoginExecutor {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &LoginExecutor{
		logger:     logger.Named("login"),
		controller: controller,
		candidates: DefaultLoginCandidates,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, 1),
		poll:       defaultPollInterval,
	}
}

// Login tries each candidate in order and reports whether one succeeded.
// Failures are logged, never returned.
func (l *LoginExecutor) Login(ctx context.Context, creds schemas.Credentials) bool {
	for i, cand := range l.candidates {
		if err := l.limiter.Wait(ctx); err != nil {
			l.logger.Debug("Login aborted.", zap.Error(err))
			return false
		}

		attemptCtx, cancel := context.WithTimeout(ctx, l.timeout)
		err := l.attempt(attemptCtx, cand, creds)
		cancel()

		if err == nil {
			l.logger.Info("Automatic login succeeded.", zap.String("user_selector", cand.UserSelector))
			return true
		}
		l.logger.Debug("Login candidate failed.",
			zap.Int("candidate", i),
			zap.String("user_selector", cand.UserSelector),
			zap.Error(err))
		if ctx.Err() != nil {
			return false
		}
	}
	l.logger.Warn("Automatic login failed for every known form layout; continuing without login.")
	return false
}

func (l *LoginExecutor) attempt(ctx context.Context, cand LoginCandidate, creds schemas.Credentials) error {
	if err := l.waitForSelector(ctx, cand.UserSelector); err != nil {
		return err
	}

	var filled bool
	if err := l.controller.Evaluate(ctx, fillScript(cand, creds), &filled); err != nil {
		return fmt.Errorf("failed to fill login form: %w", err)
	}
	if !filled {
		return errFieldsNotFound
	}

	before, err := l.controller.URL(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current URL: %w", err)
	}

	var clicked bool
	if err := l.controller.Evaluate(ctx, clickScript(submitSelector), &clicked); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	if !clicked {
		// Nothing to submit; the filled form is the best we can do.
		return nil
	}
	return l.waitForNavigation(ctx, before)
}

func (l *LoginExecutor) waitForSelector(ctx context.Context, selector string) error {
	script := fmt.Sprintf("document.querySelector(%s) !== null", jsString(selector))
	return l.pollUntil(ctx, func() (bool, error) {
		var present bool
		err := l.controller.Evaluate(ctx, script, &present)
		return present, err
	}, fmt.Sprintf("selector %s", selector))
}

func (l *LoginExecutor) waitForNavigation(ctx context.Context, from string) error {
	return l.pollUntil(ctx, func() (bool, error) {
		current, err := l.controller.URL(ctx)
		return err == nil && current != from, nil
	}, "navigation after submit")
}

// pollUntil evaluates cond until it is true or ctx expires. Evaluation errors
// are retried; pages mid-navigation reject scripts transiently.
func (l *LoginExecutor) pollUntil(ctx context.Context, cond func() (bool, error), what string) error {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	var lastErr error
	for {
		ok, err := cond()
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("timed out waiting for %s: %w", what, lastErr)
			}
			return fmt.Errorf("timed out waiting for %s: %w", what, ctx.Err())
		case <-ticker.C:
		}
	}
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s)
	return string(b)
}

// fillScript sets both fields through the native value setter so frameworks
// observing input events pick the change up.
func fillScript(cand LoginCandidate, creds schemas.Credentials) string {
	return fmt.Sprintf(`(function (u, p, uv, pv) {
  var uf = document.querySelector(u), pf = document.querySelector(p);
  if (!uf || !pf) { return false; }
  function set(el, v) {
    var d = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
    if (d && d.set) { d.set.call(el, v); } else { el.value = v; }
    el.dispatchEvent(new Event('input', { bubbles: true }));
    el.dispatchEvent(new Event('change', { bubbles: true }));
  }
  uf.focus(); set(uf, uv);
  pf.focus(); set(pf, pv);
  return true;
})(%s, %s, %s, %s)`,
		jsString(cand.UserSelector), jsString(cand.PasswordSelector),
		jsString(creds.Username), jsString(creds.Password))
}

func clickScript(selector string) string {
	return fmt.Sprintf(`(function (s) {
  var el = document.querySelector(s);
  if (!el) { return false; }
  el.click();
  return true;
})(%s)`, jsString(selector))
}
