package config

import "fmt"

// ViewName identifies one of the dashboard views (e.g. "bar", "scatter").
type ViewName string

// Dashboard views.
const (
	ViewBar     ViewName = "bar"
	ViewBox     ViewName = "box"
	ViewPie     ViewName = "pie"
	ViewScatter ViewName = "scatter"
)

// String returns the view name as a plain string.
func (v ViewName) String() string {
	return string(v)
}

// IsValid reports whether the view name is one of the known dashboard views.
func (v ViewName) IsValid() bool {
	switch v {
	case ViewBar, ViewBox, ViewPie, ViewScatter:
		return true
	default:
		return false
	}
}

// AllViewNames returns all known dashboard views, in navigation order.
func AllViewNames() []ViewName {
	return []ViewName{
		ViewBar,
		ViewBox,
		ViewPie,
		ViewScatter,
	}
}

// ParseView converts a string into a [ViewName].
func ParseView(in string) (ViewName, error) {
	v := ViewName(in)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown view %q (should be one of %v)", in, AllViewNames())
	}

	return v, nil
}
