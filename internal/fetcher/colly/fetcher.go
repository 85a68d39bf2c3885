// Package collyfetcher implements event.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/metrics"
)

// ErrUnexpectedStatus is wrapped by Fetch when the response is not 2xx.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Limiter gates requests per host.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Headers   http.Header
	// Limiter is optional.
	Limiter Limiter
}

// Fetcher implements event.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. Transport failures,
// timeouts and non-2xx responses are returned as errors. Canceling ctx
// aborts the in-flight request.
func (f *Fetcher) Fetch(ctx context.Context, url string) (event.Page, error) {
	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx, url); err != nil {
			return event.Page{}, fmt.Errorf("fetch %s: %w", url, err)
		}
	}
	collector := f.buildCollector()
	collector.Context = ctx

	page, err := f.runCollector(ctx, collector, url)
	if err != nil {
		metrics.ObserveFetch(url, "error", 0)
		return event.Page{}, err
	}
	metrics.ObserveFetch(url, statusClass(page.StatusCode), len(page.Body))
	if page.StatusCode < http.StatusOK || page.StatusCode >= http.StatusMultipleChoices {
		return event.Page{}, fmt.Errorf("fetch %s: %w: %d", url, ErrUnexpectedStatus, page.StatusCode)
	}
	return page, nil
}

// visitResult is written only by the collector hooks of a single visit and
// handed back over a channel once the visit returns.
type visitResult struct {
	page event.Page
	err  error
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	// Scheduled runs fetch the same listing URLs every time.
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	transport := f.transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	collector.WithTransport(transport)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, start time.Time, res *visitResult) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		res.page = event.Page{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: contentType,
			Body:        append([]byte(nil), r.Body...),
			Duration:    time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		res.err = err
	})
}

// runCollector visits url on its own goroutine. The hooks fill a result
// owned by that goroutine, so returning early on cancellation leaves
// nothing shared behind.
func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) (event.Page, error) {
	type outcome struct {
		res      visitResult
		visitErr error
	}
	done := make(chan outcome, 1)
	go func() {
		var res visitResult
		f.configureCollectorHooks(collector, time.Now(), &res)
		err := collector.Visit(url)
		done <- outcome{res: res, visitErr: err}
	}()

	select {
	case <-ctx.Done():
		return event.Page{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case out := <-done:
		if ctx.Err() != nil {
			return event.Page{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
		}
		if out.visitErr != nil {
			return event.Page{}, fmt.Errorf("colly visit failed: %w", out.visitErr)
		}
		if out.res.err != nil {
			return event.Page{}, fmt.Errorf("colly response failed: %w", out.res.err)
		}
		return out.res.page, nil
	}
}

func (f *Fetcher) copyHeaders(r *colly.Request) {
	if f.cfg.Headers == nil {
		return
	}
	for key, values := range f.cfg.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
