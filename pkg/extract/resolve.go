package extract

import (
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/derive"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// Resolve matches a suggested value against lookup values. Tiers are tried in
// order and the first option in table order wins within a tier:
//
//  1. exact
//  2. equal ignoring case and surrounding space
//  3. one is a prefix of the other
//  4. one contains the other
func Resolve(value string, options []string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tiers := []func(opt string) bool{
		func(opt string) bool { return opt == value },
		func(opt string) bool { return strings.EqualFold(strings.TrimSpace(opt), value) },
		func(opt string) bool { return strings.HasPrefix(opt, value) || strings.HasPrefix(value, opt) },
		func(opt string) bool { return strings.Contains(opt, value) || strings.Contains(value, opt) },
	}
	for _, match := range tiers {
		for _, opt := range options {
			if opt == "" {
				continue
			}
			if match(opt) {
				return opt, true
			}
		}
	}
	return "", false
}

// resolveOption resolves against option values first, then labels, and
// returns the matching option's value.
func resolveOption(value string, opts []derive.Option) string {
	if v, ok := Resolve(value, derive.Values(opts)); ok {
		return v
	}
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	if l, ok := Resolve(value, labels); ok {
		for _, o := range opts {
			if o.Label == l {
				return o.Value
			}
		}
	}
	return ""
}

// Form is a suggestion with lookup fields resolved to selectable values.
// Unresolved lookup fields are empty.
type Form struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Category     string `json:"category"`
	Organization string `json:"organization"`
	Assignee     string `json:"assignee"`
	DueDate      string `json:"dueDate"`
	Summary      string `json:"summary"`
}

// Fill resolves s against the current selection options.
func (s Suggestion) Fill(opts derive.Options) Form {
	return Form{
		Title:        s.Title,
		Date:         s.Date,
		Time:         s.Time,
		Category:     resolveOption(s.Category, opts.Categories),
		Organization: resolveOption(s.Organization, opts.Organizations),
		Assignee:     resolveOption(s.Assignee, opts.Staff),
		DueDate:      s.DueDate,
		Summary:      s.Summary,
	}
}

func normalizeDate(s string) string {
	t, ok := util.ParseDate(s, time.UTC)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

func normalizeClock(s string) string {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}
