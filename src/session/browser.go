package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	PuterScriptURL = "https://js.puter.com/v2/"
	DefaultModel   = "gpt-4o"
)

// BrowserOptions configures the headless Chrome session.
type BrowserOptions struct {
	Model        string
	Headless     bool
	NoSandbox    bool
	ExecPath     string
	UserDataDir  string
	ScriptURL    string
	ReadyTimeout time.Duration
	Log          logrus.FieldLogger
}

// Browser drives puter.js inside a Chrome page.
type Browser struct {
	opts BrowserOptions
	ctx  context.Context

	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	unlock        func() error

	mu        sync.Mutex // one chat call at a time
	closeOnce sync.Once
	closeErr  error
}

type chatResult struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// NewBrowser launches Chrome, loads the puter.js client and waits until
// puter.ai.chat is callable.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.ScriptURL == "" {
		opts.ScriptURL = PuterScriptURL
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 60 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	log := opts.Log.WithField("backend", "browser")

	b := &Browser{opts: opts, unlock: func() error { return nil }}

	if opts.UserDataDir != "" {
		lock, err := acquireProfileLock(ctx, opts.UserDataDir+".lock", func(waited time.Duration) {
			if waited == 0 {
				log.WithField("profile", opts.UserDataDir).Warn("browser profile in use, waiting")
			}
		})
		if err != nil {
			return nil, &SetupError{Backend: "browser", Err: fmt.Errorf("failed to lock profile: %w", err)}
		}
		b.unlock = lock.Release
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Debugf),
		chromedp.WithErrorf(log.Debugf),
	)
	b.ctx = browserCtx
	b.cancelAlloc = cancelAlloc
	b.cancelBrowser = cancelBrowser

	log.WithField("script", opts.ScriptURL).Debug("starting browser")
	// The first Run allocates the browser and binds its lifetime to the
	// context it receives, so it must be the long-lived one.
	if err := chromedp.Run(browserCtx); err != nil {
		_ = b.Close()
		return nil, &SetupError{Backend: "browser", Err: err}
	}

	setupCtx, cancel := mergeCancel(browserCtx, ctx)
	defer cancel()

	var injected bool
	err := chromedp.Run(setupCtx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(injectScript(opts.ScriptURL), &injected),
		chromedp.Poll(readyExpr, nil,
			chromedp.WithPollingTimeout(opts.ReadyTimeout),
			chromedp.WithPollingInterval(250*time.Millisecond),
		),
	)
	if err != nil {
		_ = b.Close()
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			err = fmt.Errorf("puter.ai.chat not available after %s: %w", opts.ReadyTimeout, err)
		}
		return nil, &SetupError{Backend: "browser", Err: err}
	}
	log.WithField("model", opts.Model).Debug("browser session ready")
	return b, nil
}

// Ask evaluates puter.ai.chat in the page and returns the reply text.
func (b *Browser) Ask(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	script, err := chatScript(prompt, b.opts.Model)
	if err != nil {
		return "", &RemoteError{Backend: "browser", Err: err}
	}

	runCtx, cancel := mergeCancel(b.ctx, ctx)
	defer cancel()

	var res chatResult
	err = chromedp.Run(runCtx, chromedp.Evaluate(script, &res, awaitPromise))
	if err != nil {
		return "", &RemoteError{Backend: "browser", Err: err}
	}
	return res.text()
}

// Close shuts Chrome down and releases the profile lock. Safe to call more than once.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		var errs []error
		if b.ctx != nil {
			if err := chromedp.Cancel(b.ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs = append(errs, err)
			}
		}
		if b.cancelBrowser != nil {
			b.cancelBrowser()
		}
		if b.cancelAlloc != nil {
			b.cancelAlloc()
		}
		if b.unlock != nil {
			if err := b.unlock(); err != nil {
				errs = append(errs, err)
			}
		}
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}

func (r chatResult) text() (string, error) {
	if !r.OK {
		msg := r.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", &RemoteError{Backend: "browser", Err: errors.New(msg)}
	}
	return r.Text, nil
}

func allocatorOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	out := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	out = append(out, chromedp.Flag("headless", opts.Headless))
	if opts.NoSandbox {
		out = append(out, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		out = append(out, chromedp.UserDataDir(opts.UserDataDir))
	}
	return out
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// mergeCancel returns a child of base that is also cancelled when other is done.
func mergeCancel(base, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

const readyExpr = `!!(window.puter && window.puter.ai && typeof window.puter.ai.chat === "function")`

func injectScript(src string) string {
	lit, _ := json.Marshal(src)
	return fmt.Sprintf(`(() => {
	const s = document.createElement("script");
	s.src = %s;
	document.head.appendChild(s);
	return true;
})()`, lit)
}

// chatScript builds the expression that calls puter.ai.chat. The prompt and
// model are embedded as JSON string literals so any content is safe.
func chatScript(prompt, model string) (string, error) {
	p, err := json.Marshal(prompt)
	if err != nil {
		return "", err
	}
	m, err := json.Marshal(model)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(async () => {
	try {
		const r = await window.puter.ai.chat(%s, {model: %s});
		let text;
		if (typeof r === "string") {
			text = r;
		} else if (r && r.message && typeof r.message.content === "string") {
			text = r.message.content;
		} else if (r && r.message && Array.isArray(r.message.content)) {
			text = r.message.content.map(c => (c && c.text) || "").join("");
		} else {
			text = String(r);
		}
		return {ok: true, text: text, error: ""};
	} catch (e) {
		let msg = e && e.message;
		if (!msg) {
			try { msg = JSON.stringify(e); } catch (_) { msg = String(e); }
		}
		return {ok: false, text: "", error: msg};
	}
})()`, p, m), nil
}
