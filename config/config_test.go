package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"court-watcher/crawler"
	"court-watcher/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: debug
categories:
  - code: "1000"
    courts: ["有明", "大井"]
  - code: "1030"
conditions:
  - "土 19:00-21:00"
  - "* 07:00～09:00"
maintenance:
  - from: "00:00"
    to: "06:00"
  - days: [1]
    from: "22:00"
    to: "02:00"
site:
  maxRetry: 6
  retryDelay: 10s
  templates:
    back:
      - key: displayNo
        value: custom
notifier:
  kind: slack
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearSecrets(t *testing.T) {
	for _, name := range []string{
		"SLACK_BOT_TOKEN", "TELEGRAM_BOT_TOKEN", "NOTIFICATION_CHANNEL",
		"COURT_WATCHER_NOTIFIER_TOKEN", "COURT_WATCHER_NOTIFIER_CHANNEL",
		"COURT_WATCHER_CATEGORIES",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad(t *testing.T) {
	clearSecrets(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("NOTIFICATION_CHANNEL", "C0123")

	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "Asia/Tokyo", conf.Timezone)
	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, "xoxb-test", conf.Notifier.Token)
	assert.Equal(t, "C0123", conf.Notifier.Channel)
	assert.Equal(t, 20*time.Minute, conf.Schedule.Interval)

	assert.Equal(t, []crawler.Category{
		{Code: "1000", Courts: []string{"有明", "大井"}},
		{Code: "1030"},
	}, conf.CrawlCategories())

	conds, err := conf.ScheduleConditions()
	require.NoError(t, err)
	assert.Equal(t, types.Conditions{
		{Weekday: "土", Time: "19:00-21:00"},
		{Weekday: types.Any, Time: "07:00-09:00"},
	}, conds)

	windows := conf.MaintenanceWindows()
	require.Len(t, windows, 2)
	assert.Equal(t, []int{1}, windows[1].Days)

	cc, err := conf.Crawler()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cc.BaseURL)
	assert.Equal(t, 6, cc.MaxRetry)
	assert.Equal(t, 10*time.Second, cc.RetryDelay)
	assert.Equal(t, "/web/rsvWTIM_Action.do", cc.Endpoints.SearchCondition)
	assert.Equal(t, "selectBldCd[%d]", cc.Fields.CourtFlag)
	assert.NotNil(t, cc.RedirectPattern)
	assert.Equal(t, "label", cc.CourtQuery.Tag)

	// file template replaces the default, the others are kept
	assert.Equal(t, crawler.Payload{{Key: "displayNo", Value: "custom"}}, cc.Templates[crawler.TemplateBack])
	assert.Contains(t, cc.Templates[crawler.TemplateStart], crawler.Param{Key: "displayNo", Value: "pawae1000"})
}

func TestLoad_EnvOverride(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("COURT_WATCHER_NOTIFIER_CHANNEL", "-100200")
	t.Setenv("COURT_WATCHER_TIMEZONE", "UTC")

	conf, err := Load(writeConfig(t, sampleConfig+"  channel: ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "123:abc", conf.Notifier.Token)
	assert.Equal(t, "-100200", conf.Notifier.Channel)
	assert.Equal(t, "UTC", conf.Timezone)
}

func TestLoad_MissingSecret(t *testing.T) {
	clearSecrets(t)
	t.Setenv("NOTIFICATION_CHANNEL", "C0123")

	_, err := Load(writeConfig(t, sampleConfig))
	assert.ErrorIs(t, err, ErrMissingSecret)

	clearSecrets(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	_, err = Load(writeConfig(t, sampleConfig))
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_EnvOnly(t *testing.T) {
	clearSecrets(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("NOTIFICATION_CHANNEL", "C0123")
	t.Setenv("COURT_WATCHER_CATEGORIES", "1000, 1030")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", conf.Path)
	assert.Equal(t, []crawler.Category{{Code: "1000"}, {Code: "1030"}}, conf.CrawlCategories())
	assert.Equal(t, []string{"* 19:00-21:00"}, conf.Conditions)
	assert.Equal(t, 4, conf.Site.MaxRetry)
}

func TestLoad_FileCategoriesWinOverEnv(t *testing.T) {
	clearSecrets(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("NOTIFICATION_CHANNEL", "C0123")
	t.Setenv("COURT_WATCHER_CATEGORIES", "9999")

	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Len(t, conf.Categories, 2)
	assert.Equal(t, "1000", conf.Categories[0].Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearSecrets(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("NOTIFICATION_CHANNEL", "C0123")

	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"notifier kind", func(c *Config) { c.Notifier.Kind = "email" }},
		{"no categories", func(c *Config) { c.Categories = nil }},
		{"empty category code", func(c *Config) { c.Categories = []Category{{Courts: []string{"有明"}}} }},
		{"max retry", func(c *Config) { c.Site.MaxRetry = 0 }},
		{"missing template", func(c *Config) { delete(c.Site.Templates, crawler.TemplateSearch) }},
		{"year-month pattern", func(c *Config) { c.Site.YearMonthPattern = "([0-9]" }},
		{"condition", func(c *Config) { c.Conditions = []string{"19:00-21:00"} }},
		{"condition weekday", func(c *Config) { c.Conditions = []string{"土曜 *"} }},
		{"maintenance", func(c *Config) { c.Maintenance = []Window{{From: "24:00", To: "01:00"}} }},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *conf
			c.Site.Templates = make(map[string]crawler.Payload)
			for k, v := range conf.Site.Templates {
				c.Site.Templates[k] = v
			}
			require.NoError(t, c.Validate())
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
