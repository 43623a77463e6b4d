package derive

import "github.com/harrisonrobin/taskboard/pkg/model"

// Option is one selectable value of a form field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options feeds the category, assignee and organization selectors.
type Options struct {
	Categories    []Option `json:"categories"`
	Staff         []Option `json:"staff"`
	Organizations []Option `json:"organizations"`
}

// ComputeOptions lists the enabled, named lookup rows of snap.
func ComputeOptions(snap *model.Snapshot) Options {
	opts := Options{
		Categories:    []Option{},
		Staff:         []Option{},
		Organizations: []Option{},
	}
	for _, c := range snap.CategoryList() {
		if c.Name == "" || !c.Enabled {
			continue
		}
		value := c.Code
		if value == "" {
			value = c.Name
		}
		opts.Categories = append(opts.Categories, Option{Value: value, Label: c.Name})
	}
	for _, s := range snap.StaffList() {
		if s.Name == "" || !s.Enabled {
			continue
		}
		label := s.Name
		if s.Title != "" {
			label += " - " + s.Title
		}
		opts.Staff = append(opts.Staff, Option{Value: s.Name, Label: label})
	}
	for _, o := range snap.OrganizationList() {
		if o.FullName == "" || !o.Enabled {
			continue
		}
		opts.Organizations = append(opts.Organizations, Option{Value: o.FullName, Label: o.FullName})
	}
	return opts
}

// Values returns the option values in order.
func Values(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}
