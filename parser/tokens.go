package parser

import (
	"regexp"
	"strings"
)

// RedirectPath returns the first capture of re in page, or "" when the page
// carries no inline redirect
func RedirectPath(page string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(page)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var yearMonthRe = regexp.MustCompile(`^[0-9]{6}$`)

// YearMonths returns every YYYYMM token captured by re, in page order and
// without repeats
func YearMonths(page string, re *regexp.Regexp) []string {
	months := make([]string, 0)
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(page, -1) {
		if len(m) < 2 {
			continue
		}
		ym := strings.TrimSpace(m[1])
		if !yearMonthRe.MatchString(ym) || seen[ym] {
			continue
		}
		seen[ym] = true
		months = append(months, ym)
	}
	return months
}

// CourtLabels returns the text of every selectable court rendered in page
func CourtLabels(page string, q Query) ([]string, error) {
	root, err := Parse(page)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0)
	for _, n := range Find(root, q) {
		labels = append(labels, Text(n))
	}
	return labels, nil
}

// SelectCourts reports for every label whether it contains one of targets
func SelectCourts(labels, targets []string) []bool {
	selected := make([]bool, len(labels))
	for i, label := range labels {
		for _, t := range targets {
			if t != "" && strings.Contains(label, t) {
				selected[i] = true
				break
			}
		}
	}
	return selected
}
