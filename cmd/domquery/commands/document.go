package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"

	"github.com/jonwraymond/domquery/config"
	"github.com/jonwraymond/domquery/dom"
	"github.com/jonwraymond/domquery/dom/chromedoc"
	"github.com/jonwraymond/domquery/dom/htmldoc"
)

var errNoSource = errors.New("one of --file or --url is required")

// pageFlags selects the document a command runs against.
type pageFlags struct {
	file string
	url  string
}

// open loads the page. A file is parsed statically and reported under url
// when one is given; a bare url is opened in Chrome. The returned func
// releases the document.
func (p pageFlags) open(ctx context.Context, cfg config.BrowserConfig) (dom.Document, func(), error) {
	switch {
	case p.file != "":
		return openFile(p.file, p.url, cfg)
	case p.url != "":
		return openChrome(ctx, p.url, cfg)
	default:
		return nil, nil, errNoSource
	}
}

func openFile(path, url string, cfg config.BrowserConfig) (dom.Document, func(), error) {
	if url == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, nil, err
		}
		url = "file://" + filepath.ToSlash(abs)
	}

	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	doc, err := htmldoc.Parse(url, f,
		htmldoc.WithViewport(float64(cfg.ViewportWidth), float64(cfg.ViewportHeight)))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, func() {}, nil
}

func openChrome(ctx context.Context, url string, cfg config.BrowserConfig) (dom.Document, func(), error) {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	}
	if cfg.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	doc, cancel, err := chromedoc.Open(ctx, url, opts...)
	if err != nil {
		return nil, nil, err
	}
	return doc, cancel, nil
}
