package config

import (
	"time"

	"court-watcher/crawler"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL = "https://yoyaku.sports.metro.tokyo.lg.jp"

	// DefaultRedirectPattern matches the inline script the start page uses
	// to move the browser on to the search condition form
	DefaultRedirectPattern = `var\s+\w+\s*=\s*["'](/[^"']+\.do[^"']*)["']`
	// DefaultYearMonthPattern matches the month tabs of the search form
	DefaultYearMonthPattern = `(?:selectYM|dispYM)[^0-9]{1,20}([0-9]{6})`
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "Asia/Tokyo")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("site.baseURL", DefaultBaseURL)
	v.SetDefault("site.endpoints.entry", "/web/index.jsp")
	v.SetDefault("site.endpoints.start", "/web/rsvWTransInstSrchVacantAction.do")
	v.SetDefault("site.endpoints.searchCondition", "/web/rsvWTIM_Action.do")
	v.SetDefault("site.endpoints.selectSport", "/web/rsvWTransInstSrchPpsAction.do")
	v.SetDefault("site.endpoints.searchConditionWithSport", "/web/rsvWTransInstSrchMultipleAction.do")
	v.SetDefault("site.endpoints.search", "/web/rsvWGetInstSrchInfAction.do")
	v.SetDefault("site.endpoints.back", "/web/rsvWInstSrchVacantBackAction.do")

	v.SetDefault("site.fields.sport", "selectPpsCd")
	v.SetDefault("site.fields.year", "selectYear")
	v.SetDefault("site.fields.month", "selectMonth")
	v.SetDefault("site.fields.date", "selectDay")
	v.SetDefault("site.fields.courtFlag", "selectBldCd[%d]")
	v.SetDefault("site.fields.courtCount", "selectBldCnt")
	v.SetDefault("site.fields.selected", "1")
	v.SetDefault("site.fields.unselected", "0")

	v.SetDefault("site.redirectPattern", DefaultRedirectPattern)
	v.SetDefault("site.yearMonthPattern", DefaultYearMonthPattern)
	v.SetDefault("site.courtQuery.tag", "label")
	v.SetDefault("site.requestDelay", time.Second)
	v.SetDefault("site.retryDelay", 5*time.Second)
	v.SetDefault("site.maxRetry", 4)
	v.SetDefault("site.timeout", 30*time.Second)

	v.SetDefault("conditions", []string{"* 19:00-21:00"})

	v.SetDefault("schedule.interval", 20*time.Minute)
	v.SetDefault("schedule.nightInterval", 3*time.Hour)
	v.SetDefault("schedule.nightFrom", 1)
	v.SetDefault("schedule.nightTo", 6)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("notifier.kind", "slack")

	v.SetDefault("metrics.addr", ":9090")
}

// defaultTemplates are the form bodies captured from a browser session.
// A template given in the config file replaces the default of the same name.
func defaultTemplates() map[string]crawler.Payload {
	return map[string]crawler.Payload{
		crawler.TemplateStart: {
			{Key: "displayNo", Value: "pawae1000"},
		},
		crawler.TemplateSearchCondition: {
			{Key: "displayNo", Value: "prwrc2000"},
			{Key: "srchSelectInstNo", Value: ""},
		},
		crawler.TemplateSelectSport: {
			{Key: "displayNo", Value: "prwrc2000"},
			{Key: "selectPpsClsCd", Value: "1000"},
			{Key: "selectPpsCd", Value: ""},
		},
		crawler.TemplateSearchConditionWithSport: {
			{Key: "displayNo", Value: "prwrc2000"},
			{Key: "selectPpsClsCd", Value: "1000"},
			{Key: "selectPpsCd", Value: ""},
			{Key: "selectBldCnt", Value: "0"},
		},
		crawler.TemplateSearch: {
			{Key: "displayNo", Value: "prwrc2000"},
			{Key: "selectPpsClsCd", Value: "1000"},
			{Key: "selectYear", Value: ""},
			{Key: "selectMonth", Value: ""},
			{Key: "selectDay", Value: ""},
			{Key: "viewDays", Value: "1"},
		},
		crawler.TemplateBack: {
			{Key: "displayNo", Value: "prwmn1000"},
		},
	}
}
