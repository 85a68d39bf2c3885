package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/city-events-scraper/internal/config"
	"github.com/JakeFAU/city-events-scraper/internal/event"
)

type fakeApp struct {
	summaries []event.SourceSummary
	ran       bool
	closed    bool
}

func (f *fakeApp) Run(context.Context) error {
	f.ran = true
	return nil
}

func (f *fakeApp) ScrapeOnce(context.Context) []event.SourceSummary {
	return f.summaries
}

func (f *fakeApp) Close(context.Context) error {
	f.closed = true
	return nil
}

// withFakeApp swaps the factory; tests using it must not run in parallel.
func withFakeApp(t *testing.T, app *fakeApp) {
	t.Helper()
	orig := newApp
	newApp = func(context.Context, *config.Config) (application, error) { return app, nil }
	t.Cleanup(func() { newApp = orig })
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScrapeCommandPrintsSummaries(t *testing.T) {
	app := &fakeApp{summaries: []event.SourceSummary{
		{Source: "Sydney.com", Extracted: 12, Inserted: 10, Updated: 2},
		{Source: "SydneyConcerts", Error: "fetch page: timeout"},
	}}
	withFakeApp(t, app)

	out, err := execute("scrape")
	require.NoError(t, err)
	assert.True(t, app.closed)

	var got []event.SourceSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Inserted)
}

func TestScrapeCommandFailsWhenEverySourceFails(t *testing.T) {
	withFakeApp(t, &fakeApp{summaries: []event.SourceSummary{{Source: "a", Error: "boom"}}})

	_, err := execute("scrape")
	require.ErrorIs(t, err, errAllSourcesFailed)
}

func TestServeCommandRunsApp(t *testing.T) {
	app := &fakeApp{}
	withFakeApp(t, app)

	_, err := execute("serve")
	require.NoError(t, err)
	assert.True(t, app.ran)
}

func TestRootCommandReportsFactoryErrors(t *testing.T) {
	orig := newApp
	newApp = func(context.Context, *config.Config) (application, error) { return nil, errors.New("db down") }
	t.Cleanup(func() { newApp = orig })

	_, err := execute("scrape")
	require.ErrorContains(t, err, "db down")
}

func TestRootCommandRejectsMissingConfigFile(t *testing.T) {
	withFakeApp(t, &fakeApp{})

	_, err := execute("scrape", "--config", "/does/not/exist.yaml")
	require.ErrorContains(t, err, "load config")
}

func TestResolveAppWithoutInit(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	require.Error(t, err)
}
