package render

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Environment is one disposable browser-automation context. Exactly one is
// acquired per render call and released before that call returns; environments
// are never pooled or reused across renders.
type Environment interface {
	// NewPage opens a fresh page surface.
	NewPage(ctx context.Context) (Page, error)

	// Close releases the environment and the browser process behind it.
	Close() error
}

// Page is one page surface inside an Environment.
type Page interface {
	// SetViewport sets the visible dimensions and the device pixel density
	// multiplier used for raster capture.
	SetViewport(width, height int, quality float64) error

	// SetContent loads a self-contained HTML document into the page.
	SetContent(html string) error

	// WaitFor blocks until selector matches an element or timeout elapses.
	WaitFor(selector string, timeout time.Duration) error

	// TextOf returns the text content of selector if it is present right
	// now. It never waits.
	TextOf(selector string) (string, bool)

	// ScaleElement applies a centered CSS scale transform to the element.
	ScaleElement(selector string, scale float64) error

	// ElementHTML returns the serialized markup of the element.
	ElementHTML(selector string) (string, error)

	// ScreenshotElement captures a PNG scoped to the element's bounding
	// box. With omitBackground the page background is left out so the
	// pixels outside the drawing stay transparent.
	ScreenshotElement(selector string, omitBackground bool) ([]byte, error)

	// PDF prints the whole page to a paginated document sized exactly
	// width x height pixels with zero margins and backgrounds printed.
	PDF(width, height int) ([]byte, error)
}

// LaunchFunc acquires a fresh rendering environment.
type LaunchFunc func(ctx context.Context) (Environment, error)

// Launch starts a headless Chromium with sandboxing disabled, so renders
// work inside containers and CI runners, and connects to it over DevTools.
func Launch(ctx context.Context) (Environment, error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	url, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().Context(ctx).ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	return &browserEnv{browser: browser, launcher: l}, nil
}

type browserEnv struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (e *browserEnv) NewPage(ctx context.Context) (Page, error) {
	p, err := e.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return &browserPage{page: p.Context(ctx)}, nil
}

func (e *browserEnv) Close() error {
	err := e.browser.Close()
	e.launcher.Cleanup()
	return err
}

type browserPage struct {
	page *rod.Page
}

func (p *browserPage) SetViewport(width, height int, quality float64) error {
	return p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: quality,
		Mobile:            false,
	})
}

func (p *browserPage) SetContent(html string) error {
	return p.page.SetDocumentContent(html)
}

func (p *browserPage) WaitFor(selector string, timeout time.Duration) error {
	_, err := p.page.Timeout(timeout).Element(selector)
	return err
}

func (p *browserPage) TextOf(selector string) (string, bool) {
	has, el, err := p.page.Has(selector)
	if err != nil || !has {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	return text, true
}

func (p *browserPage) ScaleElement(selector string, scale float64) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	_, err = el.Eval(`(s) => {
		this.style.transform = "scale(" + s + ")";
		this.style.transformOrigin = "center";
	}`, scale)
	return err
}

func (p *browserPage) ElementHTML(selector string) (string, error) {
	el, err := p.element(selector)
	if err != nil {
		return "", err
	}
	return el.HTML()
}

func (p *browserPage) ScreenshotElement(selector string, omitBackground bool) ([]byte, error) {
	el, err := p.element(selector)
	if err != nil {
		return nil, err
	}

	if omitBackground {
		override := proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{R: 0, G: 0, B: 0, A: gson.Num(0)},
		}
		if err := override.Call(p.page); err != nil {
			return nil, err
		}
	}

	shape, err := el.Shape()
	if err != nil {
		return nil, err
	}
	box := shape.Box()

	return p.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
	})
}

func (p *browserPage) PDF(width, height int) ([]byte, error) {
	// PrintToPDF takes paper sizes in inches; convert at CSS 96 dpi so the
	// document comes out exactly width x height pixels.
	reader, err := p.page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      gson.Num(float64(width) / 96),
		PaperHeight:     gson.Num(float64(height) / 96),
		MarginTop:       gson.Num(0),
		MarginBottom:    gson.Num(0),
		MarginLeft:      gson.Num(0),
		MarginRight:     gson.Num(0),
	})
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// element looks up selector without waiting. The render sequence has
// already waited for the SVG, so absence here is a hard failure.
func (p *browserPage) element(selector string) (*rod.Element, error) {
	has, el, err := p.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("element %s not found", selector)
	}
	return el, nil
}
