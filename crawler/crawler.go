package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"court-watcher/metrics"
	"court-watcher/parser"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoYearMonths means the search condition page listed no displayable
	// months, which the site does while it serves an error or maintenance page
	ErrNoYearMonths = errors.New("no displayable year-months found")
	// ErrRetryExhausted wraps the last transient error once MaxRetry is reached
	ErrRetryExhausted = errors.New("crawl retries exhausted")
)

// Endpoints are paths relative to Config.BaseURL
type Endpoints struct {
	Entry                    string
	Start                    string
	SearchCondition          string
	SelectSport              string
	SearchConditionWithSport string
	Search                   string
	Back                     string
}

// Fields names the form keys that are overridden per call.
// An empty name disables that override.
type Fields struct {
	Sport      string // category code
	Year       string // YYYY
	Month      string // M
	Date       string // YYYYMMDD, first day of the month
	CourtFlag  string // fmt pattern taking the court index, e.g. "selectInstNo[%d]"
	CourtCount string
	Selected   string
	Unselected string
}

type Config struct {
	BaseURL          string
	Endpoints        Endpoints
	Templates        map[string]Payload
	Fields           Fields
	RedirectPattern  *regexp.Regexp // capture 1 is the path of the search condition form
	YearMonthPattern *regexp.Regexp // capture 1 is a YYYYMM token
	CourtQuery       parser.Query   // selectable court labels on the sport page
	RequestDelay     time.Duration
	RetryDelay       time.Duration
	MaxRetry         int
	Timeout          time.Duration
}

// Category is one facility category searched in a single form submission
type Category struct {
	Code   string
	Courts []string // target court name substrings, empty means every court
}

// Page is the rendered availability page of one month
type Page struct {
	Year  int
	Month int
	HTML  string
}

type Result struct {
	Category Category
	Pages    []Page
}

type Crawler struct {
	cfg        Config
	base       *url.URL
	newSession func() *Session
	sleep      func(time.Duration)
}

type Option func(*Crawler)

// WithSessionFactory replaces the Session constructor
func WithSessionFactory(f func() *Session) Option {
	return func(c *Crawler) {
		c.newSession = f
	}
}

// WithSleep replaces the blocking sleep used between requests and retries
func WithSleep(f func(time.Duration)) Option {
	return func(c *Crawler) {
		c.sleep = f
	}
}

func New(cfg Config, opts ...Option) (*Crawler, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.YearMonthPattern == nil {
		return nil, errors.New("year-month pattern is required")
	}
	if cfg.MaxRetry < 1 {
		cfg.MaxRetry = 1
	}

	c := &Crawler{
		cfg:   cfg,
		base:  base,
		sleep: time.Sleep,
	}
	c.newSession = func() *Session {
		if cfg.Timeout > 0 {
			return NewSession(WithTimeout(cfg.Timeout))
		}
		return NewSession()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Crawl walks the reservation wizard for one category and returns one page
// per displayable month. It uses its own Session; nothing is shared with
// other categories.
func (c *Crawler) Crawl(ctx context.Context, cat Category) (*Result, error) {
	started := time.Now()
	defer func() {
		metrics.CrawlDuration.WithLabelValues(cat.Code).Observe(time.Since(started).Seconds())
	}()

	log.Info().Str("category", cat.Code).Msg("🔍 Starting crawl")

	session, months, err := c.openSearch(ctx, cat)
	if err != nil {
		metrics.CrawlFailures.WithLabelValues(cat.Code).Inc()
		return nil, err
	}

	if err := c.selectCourts(ctx, session, cat); err != nil {
		metrics.CrawlFailures.WithLabelValues(cat.Code).Inc()
		return nil, err
	}

	result := &Result{Category: cat, Pages: make([]Page, 0, len(months))}
	for _, ym := range months {
		page, err := c.searchMonth(ctx, session, ym)
		if err != nil {
			metrics.CrawlFailures.WithLabelValues(cat.Code).Inc()
			return nil, err
		}
		result.Pages = append(result.Pages, page)
	}

	log.Info().
		Str("category", cat.Code).
		Int("pages", len(result.Pages)).
		Dur("took", time.Since(started)).
		Msg("✅ Crawl completed")
	return result, nil
}

// openSearch runs the entry, start and search condition steps, retrying them
// together while the month list is missing
func (c *Crawler) openSearch(ctx context.Context, cat Category) (*Session, []string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetry; attempt++ {
		metrics.CrawlAttempts.WithLabelValues(cat.Code).Inc()

		session := c.newSession()
		months, err := c.searchCondition(ctx, session)
		if err == nil {
			log.Info().
				Str("category", cat.Code).
				Int("attempt", attempt).
				Strs("months", months).
				Msg("📅 Found displayable months")
			return session, months, nil
		}
		if !errors.Is(err, ErrNoYearMonths) {
			return nil, nil, err
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("category", cat.Code).
			Int("attempt", attempt).
			Int("max", c.cfg.MaxRetry).
			Msg("⚠️ Search condition page has no months")

		if attempt < c.cfg.MaxRetry {
			c.sleep(c.cfg.RetryDelay * time.Duration(attempt))
		}
	}
	return nil, nil, fmt.Errorf("%w: category %s after %d attempts: %w", ErrRetryExhausted, cat.Code, c.cfg.MaxRetry, lastErr)
}

func (c *Crawler) searchCondition(ctx context.Context, s *Session) ([]string, error) {
	if _, err := c.request(ctx, s, http.MethodGet, c.cfg.Endpoints.Entry, nil); err != nil {
		return nil, err
	}

	body, err := c.request(ctx, s, http.MethodPost, c.cfg.Endpoints.Start, c.template(TemplateStart))
	if err != nil {
		return nil, err
	}

	path := c.cfg.Endpoints.SearchCondition
	if c.cfg.RedirectPattern != nil {
		if p := parser.RedirectPath(body, c.cfg.RedirectPattern); p != "" {
			log.Debug().Str("path", p).Msg("following inline redirect")
			path = p
		}
	}

	body, err = c.request(ctx, s, http.MethodPost, path, c.template(TemplateSearchCondition))
	if err != nil {
		return nil, err
	}

	months := parser.YearMonths(body, c.cfg.YearMonthPattern)
	if len(months) == 0 {
		return nil, ErrNoYearMonths
	}
	return months, nil
}

// selectCourts picks the sport and submits the court selection vector.
// Every rendered court gets an explicit flag so the form receives a full vector.
func (c *Crawler) selectCourts(ctx context.Context, s *Session, cat Category) error {
	overrides := make(map[string]string)
	c.set(overrides, c.cfg.Fields.Sport, cat.Code)

	body, err := c.request(ctx, s, http.MethodPost, c.cfg.Endpoints.SelectSport, c.template(TemplateSelectSport).With(overrides))
	if err != nil {
		return err
	}

	if len(cat.Courts) > 0 && c.cfg.Fields.CourtFlag != "" {
		labels, err := parser.CourtLabels(body, c.cfg.CourtQuery)
		if err != nil {
			return fmt.Errorf("parse court list: %w", err)
		}
		if len(labels) == 0 {
			return fmt.Errorf("%w: no selectable courts for category %s", parser.ErrStructure, cat.Code)
		}

		count := 0
		for i, selected := range parser.SelectCourts(labels, cat.Courts) {
			key := fmt.Sprintf(c.cfg.Fields.CourtFlag, i)
			if selected {
				overrides[key] = c.cfg.Fields.Selected
				count++
			} else {
				overrides[key] = c.cfg.Fields.Unselected
			}
		}
		if count == 0 {
			return fmt.Errorf("%w: none of %v found in category %s", parser.ErrStructure, cat.Courts, cat.Code)
		}
		c.set(overrides, c.cfg.Fields.CourtCount, strconv.Itoa(count))

		log.Info().
			Str("category", cat.Code).
			Int("selected", count).
			Int("courts", len(labels)).
			Msg("🎾 Courts selected")
	}

	_, err = c.request(ctx, s, http.MethodPost, c.cfg.Endpoints.SearchConditionWithSport,
		c.template(TemplateSearchConditionWithSport).With(overrides))
	return err
}

// searchMonth fetches one month and steps the wizard back so the next month
// starts from the search condition state again
func (c *Crawler) searchMonth(ctx context.Context, s *Session, ym string) (Page, error) {
	year, _ := strconv.Atoi(ym[:4])
	month, _ := strconv.Atoi(ym[4:])

	overrides := make(map[string]string)
	c.set(overrides, c.cfg.Fields.Year, ym[:4])
	c.set(overrides, c.cfg.Fields.Month, strconv.Itoa(month))
	c.set(overrides, c.cfg.Fields.Date, ym+"01")

	body, err := c.request(ctx, s, http.MethodPost, c.cfg.Endpoints.Search, c.template(TemplateSearch).With(overrides))
	if err != nil {
		return Page{}, err
	}
	if _, err := c.request(ctx, s, http.MethodPost, c.cfg.Endpoints.Back, c.template(TemplateBack)); err != nil {
		return Page{}, err
	}

	log.Info().Int("year", year).Int("month", month).Msg("📄 Month page fetched")
	return Page{Year: year, Month: month, HTML: body}, nil
}

func (c *Crawler) request(ctx context.Context, s *Session, method, path string, payload Payload) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	body, err := s.Request(ctx, method, c.base.ResolveReference(ref).String(), payload)
	c.sleep(c.cfg.RequestDelay)
	return body, err
}

func (c *Crawler) template(name string) Payload {
	t := c.cfg.Templates[name]
	out := make(Payload, len(t))
	copy(out, t)
	return out
}

func (c *Crawler) set(overrides map[string]string, key, value string) {
	if key != "" {
		overrides[key] = value
	}
}
