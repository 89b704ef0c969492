package types

import (
	"fmt"
	"strings"
)

// Diff is one slot whose value crossed the availability boundary
type Diff struct {
	Date   string
	Time   string
	Before string
	After  string
}

func (d Diff) String() string {
	return fmt.Sprintf("%s %s のステータスが %s から %s に変わりました。", d.Date, d.Time, d.Before, d.After)
}

// DiffGroup collects the diffs of one court
type DiffGroup struct {
	Name  string
	Diffs []Diff
}

func (g DiffGroup) String() string {
	lines := make([]string, 0, len(g.Diffs))
	for _, d := range g.Diffs {
		lines = append(lines, d.String())
	}
	return fmt.Sprintf("[%s]\n%s", g.Name, strings.Join(lines, "\n"))
}

// DiffMessage renders all groups as a single notification
func DiffMessage(groups []DiffGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, g.String())
	}
	return "施設空き情報に変更が見つかりました\n" + strings.Join(parts, "\n\n")
}

// ErrorMessage renders a run failure as a notification
func ErrorMessage(err error) string {
	return fmt.Sprintf("エラーが発生しました。 %v", err)
}
