package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"court-watcher/checker"
	"court-watcher/crawler"
	"court-watcher/parser"
	"court-watcher/types"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

// ErrMissingSecret is returned when the notifier credential or channel is unset
var ErrMissingSecret = errors.New("missing secret")

const envPrefix = "COURT_WATCHER"

type Log struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Pretty bool   `mapstructure:"pretty"`
}

type Endpoints struct {
	Entry                    string `mapstructure:"entry" validate:"required"`
	Start                    string `mapstructure:"start" validate:"required"`
	SearchCondition          string `mapstructure:"searchCondition" validate:"required"`
	SelectSport              string `mapstructure:"selectSport" validate:"required"`
	SearchConditionWithSport string `mapstructure:"searchConditionWithSport" validate:"required"`
	Search                   string `mapstructure:"search" validate:"required"`
	Back                     string `mapstructure:"back" validate:"required"`
}

type Fields struct {
	Sport      string `mapstructure:"sport"`
	Year       string `mapstructure:"year"`
	Month      string `mapstructure:"month"`
	Date       string `mapstructure:"date"`
	CourtFlag  string `mapstructure:"courtFlag"`
	CourtCount string `mapstructure:"courtCount"`
	Selected   string `mapstructure:"selected"`
	Unselected string `mapstructure:"unselected"`
}

type CourtQuery struct {
	Tag   string            `mapstructure:"tag"`
	Class string            `mapstructure:"class"`
	Attrs map[string]string `mapstructure:"attrs"`
}

type Site struct {
	BaseURL          string                     `mapstructure:"baseURL" validate:"required|fullUrl"`
	Endpoints        Endpoints                  `mapstructure:"endpoints"`
	Templates        map[string]crawler.Payload `mapstructure:"templates"`
	Fields           Fields                     `mapstructure:"fields"`
	RedirectPattern  string                     `mapstructure:"redirectPattern"`
	YearMonthPattern string                     `mapstructure:"yearMonthPattern" validate:"required"`
	CourtQuery       CourtQuery                 `mapstructure:"courtQuery"`
	RequestDelay     time.Duration              `mapstructure:"requestDelay"`
	RetryDelay       time.Duration              `mapstructure:"retryDelay"`
	MaxRetry         int                        `mapstructure:"maxRetry" validate:"required|min:1"`
	Timeout          time.Duration              `mapstructure:"timeout"`
}

// Category is one facility category; Courts are name substrings,
// empty means every court of the category
type Category struct {
	Code   string   `mapstructure:"code"`
	Courts []string `mapstructure:"courts"`
}

type Window struct {
	Days []int  `mapstructure:"days"`
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

type Schedule struct {
	Interval      time.Duration `mapstructure:"interval"`
	NightInterval time.Duration `mapstructure:"nightInterval"`
	NightFrom     int           `mapstructure:"nightFrom" validate:"min:0|max:23"`
	NightTo       int           `mapstructure:"nightTo" validate:"min:0|max:23"`
}

type Redis struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min:0"`
}

type Notifier struct {
	Kind    string `mapstructure:"kind" validate:"required|in:slack,telegram"`
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
	URL     string `mapstructure:"url"`
}

type Metrics struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Path        string
	Timezone    string     `mapstructure:"timezone" validate:"required"`
	Log         Log        `mapstructure:"log"`
	Site        Site       `mapstructure:"site"`
	Categories  []Category `mapstructure:"categories"`
	Conditions  []string   `mapstructure:"conditions"`
	Maintenance []Window   `mapstructure:"maintenance"`
	Schedule    Schedule   `mapstructure:"schedule"`
	Redis       Redis      `mapstructure:"redis"`
	Notifier    Notifier   `mapstructure:"notifier"`
	Metrics     Metrics    `mapstructure:"metrics"`
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	_ = v.BindEnv("notifier.token", envPrefix+"_NOTIFIER_TOKEN", "SLACK_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("notifier.channel", envPrefix+"_NOTIFIER_CHANNEL", "NOTIFICATION_CHANNEL")
	_ = v.BindEnv("redis.addr", envPrefix+"_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", envPrefix+"_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("categoryCodes", envPrefix+"_CATEGORIES")

	if path != "" {
		filename := filepath.Base(path)
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	conf := Config{Site: Site{Templates: defaultTemplates()}}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Path = path

	// comma separated codes, every court of each category
	if len(conf.Categories) == 0 {
		for _, code := range strings.Split(v.GetString("categoryCodes"), ",") {
			if code = strings.TrimSpace(code); code != "" {
				conf.Categories = append(conf.Categories, Category{Code: code})
			}
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks field rules, then the parts that need parsing
func (c *Config) Validate() error {
	if c.Notifier.Token == "" {
		return fmt.Errorf("%w: %s bot token", ErrMissingSecret, c.Notifier.Kind)
	}
	if c.Notifier.Channel == "" {
		return fmt.Errorf("%w: notification channel", ErrMissingSecret)
	}

	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}

	if len(c.Categories) == 0 {
		return errors.New("invalid config: at least one category is required")
	}
	for i, cat := range c.Categories {
		if cat.Code == "" {
			return fmt.Errorf("invalid config: categories[%d] has no code", i)
		}
	}
	for _, name := range crawler.TemplateNames {
		if _, ok := c.Site.Templates[name]; !ok {
			return fmt.Errorf("invalid config: missing payload template %q", name)
		}
	}
	if _, err := c.Site.regexps(); err != nil {
		return err
	}
	if _, err := types.ParseConditions(c.Conditions); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.MaintenanceWindows().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone: %w", err)
	}
	return nil
}

func (s Site) regexps() ([2]*regexp.Regexp, error) {
	var out [2]*regexp.Regexp
	var err error
	if s.RedirectPattern != "" {
		if out[0], err = regexp.Compile(s.RedirectPattern); err != nil {
			return out, fmt.Errorf("invalid config: redirect pattern: %w", err)
		}
	}
	if out[1], err = regexp.Compile(s.YearMonthPattern); err != nil {
		return out, fmt.Errorf("invalid config: year-month pattern: %w", err)
	}
	return out, nil
}

// Crawler converts the site section into a crawler configuration
func (c *Config) Crawler() (crawler.Config, error) {
	res, err := c.Site.regexps()
	if err != nil {
		return crawler.Config{}, err
	}
	s := c.Site
	return crawler.Config{
		BaseURL:          s.BaseURL,
		Endpoints:        crawler.Endpoints(s.Endpoints),
		Templates:        s.Templates,
		Fields:           crawler.Fields(s.Fields),
		RedirectPattern:  res[0],
		YearMonthPattern: res[1],
		CourtQuery:       parser.Query(s.CourtQuery),
		RequestDelay:     s.RequestDelay,
		RetryDelay:       s.RetryDelay,
		MaxRetry:         s.MaxRetry,
		Timeout:          s.Timeout,
	}, nil
}

func (c *Config) CrawlCategories() []crawler.Category {
	out := make([]crawler.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, crawler.Category{Code: cat.Code, Courts: cat.Courts})
	}
	return out
}

func (c *Config) ScheduleConditions() (types.Conditions, error) {
	return types.ParseConditions(c.Conditions)
}

func (c *Config) MaintenanceWindows() checker.Maintenance {
	out := make(checker.Maintenance, 0, len(c.Maintenance))
	for _, w := range c.Maintenance {
		out = append(out, checker.Window(w))
	}
	return out
}

func (c *Config) CheckSchedule() checker.Schedule {
	return checker.Schedule(c.Schedule)
}
