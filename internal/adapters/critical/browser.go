package critical

import (
	"bytes"
	"context"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.CriticalExtractor = (*Browser)(nil)

	// ErrBrowserNotFound is returned when no Chromium binary is installed.
	ErrBrowserNotFound = zerr.New("headless browser not found")
)

// collectScript walks the stylesheets of the rendered page and returns the
// text of every rule applying to an element that starts above the fold.
const collectScript = `() => {
	const fold = window.innerHeight;
	const strip = (s) => s.replace(/::?(hover|focus|focus-within|focus-visible|active|visited|before|after|placeholder|selection|first-line|first-letter|marker)\b/g, "");
	const visible = (selector) => {
		let nodes;
		try { nodes = document.querySelectorAll(strip(selector) || "*"); } catch (e) { return true; }
		for (const el of nodes) {
			if (el.getBoundingClientRect().top < fold) return true;
		}
		return false;
	};
	const walk = (rules) => {
		const out = [];
		for (const rule of rules) {
			if (rule instanceof CSSStyleRule) {
				if (visible(rule.selectorText)) out.push(rule.cssText);
			} else if (rule instanceof CSSMediaRule) {
				if (!window.matchMedia(rule.conditionText).matches) continue;
				const inner = walk(rule.cssRules);
				if (inner.length) out.push("@media " + rule.conditionText + "{" + inner.join("") + "}");
			} else if (rule instanceof CSSFontFaceRule) {
				out.push(rule.cssText);
			}
		}
		return out;
	};
	const out = [];
	for (const sheet of document.styleSheets) {
		try { out.push(...walk(sheet.cssRules)); } catch (e) {}
	}
	return out.join("\n");
}`

// Browser renders the page in headless Chromium at a fixed viewport and keeps
// the rules applying to elements that start above the fold. The browser is
// launched on first use and shared until Close.
type Browser struct {
	width, height int

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowser creates a Browser extractor for a width x height viewport.
func NewBrowser(width, height int) *Browser {
	return &Browser{width: width, height: height}
}

// Available reports whether a Chromium binary is installed locally.
func Available() bool {
	_, ok := launcher.LookPath()
	return ok
}

// Extract implements ports.CriticalExtractor.
func (b *Browser) Extract(ctx context.Context, page, css []byte) ([]byte, error) {
	browser, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}

	p, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open page")
	}
	defer func() { _ = p.Close() }()

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.width,
		Height:            b.height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, zerr.Wrap(err, "failed to set viewport")
	}
	if err := p.SetDocumentContent(string(withStyle(page, css))); err != nil {
		return nil, zerr.Wrap(err, "failed to load page")
	}

	res, err := p.Eval(collectScript)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to collect critical rules")
	}
	return []byte(res.Value.Str()), nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}

func (b *Browser) connect(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	bin, ok := launcher.LookPath()
	if !ok {
		return nil, ErrBrowserNotFound
	}
	l := launcher.New().Bin(bin).Headless(true).Context(context.WithoutCancel(ctx))
	url, err := l.Launch()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to launch browser"), "bin", bin)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, zerr.Wrap(err, "failed to connect to browser")
	}
	b.launcher = l
	b.browser = browser
	return browser, nil
}

// withStyle inlines css into the page. The page is loaded without a base URL,
// so its stylesheet links do not resolve.
func withStyle(page, css []byte) []byte {
	style := append(append([]byte("<style>"), css...), "</style>"...)
	if i := bytes.Index(bytes.ToLower(page), []byte("</head>")); i >= 0 {
		out := append([]byte(nil), page[:i]...)
		out = append(out, style...)
		return append(out, page[i:]...)
	}
	return append(style, page...)
}
