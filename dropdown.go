package csvstory

import "slices"

// Option is one entry of a selection control.
type Option struct {
	Value    string
	Label    string
	Disabled bool
}

// Select is a selection control: its options and the selected value.
type Select struct {
	Name    string
	Options []Option
	Value   string
}

// Names of the selection controls synchronized from an analysis.
const (
	SelectGroup  = "group_col"
	SelectMetric = "metric_choice"
)

// Values returns the option values in display order.
func (s *Select) Values() []string {
	out := make([]string, len(s.Options))
	for i, o := range s.Options {
		out[i] = o.Value
	}
	return out
}

// Choose selects value if it is an enabled option and reports whether it did.
func (s *Select) Choose(value string) bool {
	for _, o := range s.Options {
		if o.Value == value && !o.Disabled {
			s.Value = value
			return true
		}
	}
	return false
}

// Cycle moves the selection by delta positions, wrapping around, and
// returns the new value.
func (s *Select) Cycle(delta int) string {
	var enabled []string
	for _, o := range s.Options {
		if !o.Disabled {
			enabled = append(enabled, o.Value)
		}
	}
	if len(enabled) == 0 {
		return s.Value
	}
	i := slices.Index(enabled, s.Value)
	if i < 0 {
		i = 0
	} else {
		i = ((i+delta)%len(enabled) + len(enabled)) % len(enabled)
	}
	s.Value = enabled[i]
	return s.Value
}

// SyncOptions repopulates sel from options. The previous value stays
// selected when it is still offered, otherwise the first option wins. An
// empty list yields a single disabled "N/A" entry. The metric control always
// offers SentinelMetric first when the backend did not report it.
func SyncOptions(sel *Select, options []string, previous string) {
	sel.Options = nil
	sel.Value = ""

	if len(options) == 0 {
		sel.Options = []Option{{Value: "", Label: "N/A", Disabled: true}}
		return
	}

	values := options
	if sel.Name == SelectMetric && !slices.Contains(options, SentinelMetric) {
		values = append([]string{SentinelMetric}, options...)
	}

	sel.Options = make([]Option, len(values))
	for i, v := range values {
		sel.Options[i] = Option{Value: v, Label: v}
	}

	if slices.Contains(values, previous) {
		sel.Value = previous
	} else {
		sel.Value = values[0]
	}
}
