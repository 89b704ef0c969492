package crawler

import (
	"net/url"
	"sort"
	"strings"
)

// Template names of the form submissions. Lower case, config keys are
// case-insensitive.
const (
	TemplateStart                    = "start"
	TemplateSearchCondition          = "search_condition"
	TemplateSelectSport              = "select_sport"
	TemplateSearchConditionWithSport = "search_condition_with_sport"
	TemplateSearch                   = "search"
	TemplateBack                     = "back"
)

// TemplateNames lists every template in protocol order
var TemplateNames = []string{
	TemplateStart,
	TemplateSearchCondition,
	TemplateSelectSport,
	TemplateSearchConditionWithSport,
	TemplateSearch,
	TemplateBack,
}

// Param is one form field
type Param struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

// Payload is an ordered form body. The remote form is order sensitive,
// so a map is not enough.
type Payload []Param

// With returns a copy of p where overrides replace the template values.
// Keys missing from the template are appended in key order.
func (p Payload) With(overrides map[string]string) Payload {
	out := make(Payload, 0, len(p)+len(overrides))
	used := make(map[string]bool, len(overrides))
	for _, param := range p {
		if v, ok := overrides[param.Key]; ok {
			param.Value = v
			used[param.Key] = true
		}
		out = append(out, param)
	}

	extra := make([]string, 0)
	for k := range overrides {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, Param{Key: k, Value: overrides[k]})
	}
	return out
}

// Encode renders p as application/x-www-form-urlencoded
func (p Payload) Encode() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, url.QueryEscape(param.Key)+"="+url.QueryEscape(param.Value))
	}
	return strings.Join(parts, "&")
}

// get returns the last value of key
func (p Payload) get(key string) (string, bool) {
	value, found := "", false
	for _, param := range p {
		if param.Key == key {
			value, found = param.Value, true
		}
	}
	return value, found
}
