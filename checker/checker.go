package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"court-watcher/crawler"
	"court-watcher/metrics"
	"court-watcher/notifier"
	"court-watcher/parser"
	"court-watcher/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Crawler fetches the result pages of one facility category
type Crawler interface {
	Crawl(ctx context.Context, cat crawler.Category) (*crawler.Result, error)
}

// Store keeps the previous snapshot of every court
type Store interface {
	Restore(ctx context.Context, name string) (*types.Calendar, error)
	Store(ctx context.Context, cal *types.Calendar) error
}

// Schedule controls the watch loop: Interval normally, NightInterval
// between NightFrom and NightTo (hours, local time)
type Schedule struct {
	Interval      time.Duration
	NightInterval time.Duration
	NightFrom     int
	NightTo       int
}

type Checker struct {
	Crawler     Crawler
	Store       Store
	Notifier    notifier.Notifier
	Categories  []crawler.Category
	Conditions  types.Conditions
	Maintenance Maintenance
	Schedule    Schedule

	now func() time.Time
	mu  sync.Mutex
}

func New(c Crawler, store Store, n notifier.Notifier, categories []crawler.Category, conds types.Conditions) *Checker {
	return &Checker{
		Crawler:    c,
		Store:      store,
		Notifier:   n,
		Categories: categories,
		Conditions: conds,
		now:        time.Now,
	}
}

// Report is the outcome of one run
type Report struct {
	RunID       string
	Maintenance bool
	Groups      []types.DiffGroup
}

// Run crawls every category, compares each court against its stored
// snapshot and sends at most one diff message and at most one error message.
// Each court is stored right after its comparison, so a later failure does
// not lose earlier courts.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := &Report{RunID: uuid.NewString()}
	logger := log.With().Str("run", report.RunID).Logger()

	if c.Maintenance.Active(c.clock()) {
		logger.Info().Msg("🛠 Reservation site is in maintenance, skipping run")
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeMaintenance).Inc()
		report.Maintenance = true
		return report, nil
	}

	logger.Info().Int("categories", len(c.Categories)).Msg("🔍 Running availability check")

	groups, err := c.collect(ctx, logger)
	report.Groups = groups

	if len(groups) > 0 {
		if sendErr := c.Notifier.Send(ctx, types.DiffMessage(groups)); sendErr != nil {
			logger.Error().Err(sendErr).Msg("⚠️ Failed to send diff notification")
			err = errors.Join(err, sendErr)
		} else {
			logger.Info().Int("courts", len(groups)).Msg("📬 Diff notification sent")
		}
	} else if err == nil {
		logger.Info().Msg("no diff")
	}

	if err != nil {
		logger.Error().Err(err).Msg("❌ Run failed")
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		if sendErr := c.Notifier.Send(ctx, types.ErrorMessage(err)); sendErr != nil {
			logger.Error().Err(sendErr).Msg("⚠️ Failed to send error notification")
		}
		return report, err
	}

	if len(groups) > 0 {
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeDiff).Inc()
	} else {
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeNoDiff).Inc()
	}
	return report, nil
}

// collect processes categories in order. A category whose retries are
// exhausted is skipped; any other error stops the run.
func (c *Checker) collect(ctx context.Context, logger zerolog.Logger) ([]types.DiffGroup, error) {
	groups := make([]types.DiffGroup, 0)
	var errs []error

	for _, cat := range c.Categories {
		result, err := c.Crawler.Crawl(ctx, cat)
		if err != nil {
			if errors.Is(err, crawler.ErrRetryExhausted) {
				logger.Warn().Err(err).Str("category", cat.Code).Msg("⚠️ Skipping category")
				errs = append(errs, err)
				continue
			}
			errs = append(errs, fmt.Errorf("category %s: %w", cat.Code, err))
			return groups, errors.Join(errs...)
		}

		catGroups, err := c.process(ctx, logger, result)
		groups = append(groups, catGroups...)
		if err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", cat.Code, err))
			return groups, errors.Join(errs...)
		}
	}
	return groups, errors.Join(errs...)
}

func (c *Checker) process(ctx context.Context, logger zerolog.Logger, result *crawler.Result) ([]types.DiffGroup, error) {
	pages := make([][]*types.Calendar, 0, len(result.Pages))
	for _, p := range result.Pages {
		cals, err := parser.ExtractCalendars(p.HTML)
		if err != nil {
			return nil, fmt.Errorf("%04d/%02d: %w", p.Year, p.Month, err)
		}
		pages = append(pages, cals)
	}

	calendars, err := parser.MergeMonths(pages)
	if err != nil {
		return nil, err
	}

	groups := make([]types.DiffGroup, 0)
	for _, cal := range calendars {
		if err := cal.Validate(); err != nil {
			return groups, err
		}

		prev, err := c.Store.Restore(ctx, cal.Name)
		if err != nil {
			return groups, err
		}
		if prev != nil {
			diffs := Compare(prev, cal, c.Conditions)
			if len(diffs) > 0 {
				logger.Info().Str("court", cal.Name).Int("diffs", len(diffs)).Msg("🆕 Availability changed")
				metrics.DiffsTotal.WithLabelValues(cal.Name).Add(float64(len(diffs)))
				groups = append(groups, types.DiffGroup{Name: cal.Name, Diffs: diffs})
			}
		}

		if err := c.Store.Store(ctx, cal); err != nil {
			return groups, err
		}
	}
	return groups, nil
}

// Watch runs the checker until ctx is cancelled, sleeping the night
// interval between NightFrom and NightTo
func (c *Checker) Watch(ctx context.Context) error {
	log.Info().Msg("🔍 Checker service started")
	for {
		if _, err := c.Run(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		wait := c.nextWait(c.clock())
		log.Info().Dur("next", wait).Msg("⏰ Next check scheduled")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Checker) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *Checker) nextWait(now time.Time) time.Duration {
	s := c.Schedule
	if s.NightInterval > 0 && s.NightFrom != s.NightTo {
		hour := now.Hour()
		night := hour >= s.NightFrom && hour < s.NightTo
		if s.NightFrom > s.NightTo {
			night = hour >= s.NightFrom || hour < s.NightTo
		}
		if night {
			return s.NightInterval
		}
	}
	if s.Interval <= 0 {
		return 20 * time.Minute
	}
	return s.Interval
}
