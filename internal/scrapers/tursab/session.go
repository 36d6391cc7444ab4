// Package tursab drives the TÜRSAB agency search form over plain HTTP postbacks.
package tursab

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"agencyharvest/internal/components/assert"
	"agencyharvest/internal/components/fsdump"
	"agencyharvest/internal/components/restyutil"
	"agencyharvest/internal/components/telemetry"
	"agencyharvest/internal/document"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

const (
	report_session_open   = "session.open"
	report_session_submit = "session.submit"
	report_session_reset  = "session.reset"
)

var (
	// ErrAffordanceMissing means the page has no search input or no button to press.
	ErrAffordanceMissing = errors.New("search form affordance missing")
	// ErrNotRendered means none of the awaited elements are on the page.
	ErrNotRendered = errors.New("page did not render expected elements")
)

var tracer = otel.Tracer("agencyharvest/internal/scrapers/tursab")

// Session is one conversation with the search form. It keeps the cookies and the last page
// so that every postback carries the form state the server handed out.
type Session struct {
	http *resty.Client
	opts Options
	tel  telemetry.API

	page    *document.Tree
	pageURL *url.URL
	closed  bool
}

// Open loads the search page and verifies that the form can be used.
func Open(ctx context.Context, opts Options, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	opts = opts.WithDefaults()
	assert.NotEmptyStr(opts.BaseURL)
	assert.NotEmptyStr(opts.SearchPath)
	tel = telemetry.NewScopedAPI("tursab", tel)

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", opts.UserAgents[rand.Intn(len(opts.UserAgents))])
	client.SetHeader("accept-language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(opts.AwaitTimeout)

	telemetry.InstrumentResty(client, tel, tracer)
	if opts.TranscriptDir != "" {
		dir, err := fsdump.New(opts.TranscriptDir)
		if err != nil {
			return nil, err
		}
		restyutil.RecordTranscript(client, dir, tel)
	}

	s := &Session{
		http: client,
		opts: opts,
		tel:  tel,
	}

	ctx, cancel := context.WithTimeout(ctx, opts.AwaitTimeout)
	defer cancel()

	res, err := client.R().
		SetContext(ctx).
		Get(opts.SearchPath)
	if err != nil {
		s.tel.ReportBroken(report_session_open, err)
		return nil, fmt.Errorf("load search page: %w", err)
	}
	err = s.setPage(res)
	if err != nil {
		s.tel.ReportBroken(report_session_open, err)
		return nil, err
	}
	if !s.page.Has(opts.Form.InputID) {
		s.tel.ReportBroken(report_session_open, ErrAffordanceMissing)
		return nil, fmt.Errorf("load search page: %w", ErrAffordanceMissing)
	}
	return s, nil
}

func (s *Session) setPage(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf("unexpected status: %s", res.Status())
	}
	tree, err := document.ParseBytes(res.Body())
	if err != nil {
		return err
	}
	s.page = tree
	s.pageURL = res.RawResponse.Request.URL
	return nil
}

// Submit fills the query into the search input and presses the search button.
func (s *Session) Submit(ctx context.Context, query string) error {
	err := s.postback(ctx, s.opts.Form.SearchButtonID, query)
	if err != nil {
		s.tel.ReportWarning(report_session_submit, query, err)
		return fmt.Errorf("submit %q: %w", query, err)
	}
	return nil
}

// Reset presses the clean button so that the next query starts from an empty form.
func (s *Session) Reset(ctx context.Context) error {
	err := s.postback(ctx, s.opts.Form.ResetButtonID, "")
	if err != nil {
		s.tel.ReportWarning(report_session_reset, err)
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// AwaitRendered returns the current page if any of the given element ids is on it.
func (s *Session) AwaitRendered(ctx context.Context, markers ...string) (*document.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.page == nil {
		return nil, ErrNotRendered
	}
	for _, id := range markers {
		if s.page.Has(id) {
			return s.page, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotRendered, strings.Join(markers, ", "))
}

// Close releases the connections of the session, calling it more than once is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.http.GetClient().CloseIdleConnections()
	return nil
}

func (s *Session) postback(ctx context.Context, buttonID, query string) error {
	if s.closed {
		return errors.New("session closed")
	}
	if s.page == nil {
		return ErrAffordanceMissing
	}

	doc := s.page.Selection()
	input := doc.Find(fmt.Sprintf(`[id="%s"]`, s.opts.Form.InputID)).First()
	button := doc.Find(fmt.Sprintf(`[id="%s"]`, buttonID)).First()
	if input.Length() == 0 || button.Length() == 0 {
		return ErrAffordanceMissing
	}
	inputName, ok := input.Attr("name")
	if !ok {
		return fmt.Errorf("%w: input has no name", ErrAffordanceMissing)
	}
	buttonName, ok := button.Attr("name")
	if !ok {
		return fmt.Errorf("%w: button has no name", ErrAffordanceMissing)
	}

	form := input.Closest("form")
	values := formValues(form)
	values.Set(inputName, query)
	buttonValue, _ := button.Attr("value")
	values.Set(buttonName, buttonValue)

	target := s.pageURL
	if action, ok := form.Attr("action"); ok && action != "" && target != nil {
		ref, err := url.Parse(action)
		if err != nil {
			return fmt.Errorf("parse form action: %w", err)
		}
		target = target.ResolveReference(ref)
	}
	if target == nil {
		return errors.New("no page url to post back to")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.AwaitTimeout)
	defer cancel()

	res, err := s.http.R().
		SetContext(ctx).
		SetFormDataFromValues(values).
		SetHeader("referer", s.pageURL.String()).
		Post(target.String())
	if err != nil {
		return err
	}
	return s.setPage(res)
}

// formValues collects what a browser would send for the form without any button pressed.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		kind := strings.ToLower(in.AttrOr("type", "text"))
		switch kind {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); !checked {
				return
			}
			values.Add(name, in.AttrOr("value", "on"))
			return
		}
		if _, disabled := in.Attr("disabled"); disabled {
			return
		}
		values.Add(name, in.AttrOr("value", ""))
	})
	form.Find("textarea[name]").Each(func(_ int, ta *goquery.Selection) {
		values.Add(ta.AttrOr("name", ""), ta.Text())
	})
	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() == 0 {
			return
		}
		values.Add(sel.AttrOr("name", ""), opt.AttrOr("value", strings.TrimSpace(opt.Text())))
	})
	return values
}
