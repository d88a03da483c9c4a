package orgtree

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders a timestamp node in outline syntax. With
// preserve set the captured raw text is echoed; otherwise the weekday is
// recomputed from the date fields.
func FormatTimestamp(n *Node, preserve bool) string {
	p := n.Properties
	if preserve && p.RawValue != "" {
		return p.RawValue
	}
	if p.TimestampType == "diary" || p.Start == nil {
		return p.RawValue
	}
	open, closeB := "<", ">"
	if strings.HasPrefix(p.TimestampType, "inactive") {
		open, closeB = "[", "]"
	}
	suffix := cookies(p)
	start := formatMoment(p.Start)
	if p.End == nil {
		return open + start + suffix + closeB
	}
	if sameDay(p.Start, p.End) && p.Start.HasTime && p.End.HasTime {
		return fmt.Sprintf("%s%s-%02d:%02d%s%s", open, start, p.End.Hour, p.End.Minute, suffix, closeB)
	}
	return open + start + suffix + closeB + "--" + open + formatMoment(p.End) + suffix + closeB
}

// Weekday returns the abbreviated day name of a moment.
func Weekday(m *Moment) string {
	t := time.Date(m.Year, time.Month(m.Month), m.Day, 0, 0, 0, 0, time.UTC)
	return t.Weekday().String()[:3]
}

func formatMoment(m *Moment) string {
	s := fmt.Sprintf("%04d-%02d-%02d %s", m.Year, m.Month, m.Day, Weekday(m))
	if m.HasTime {
		s += fmt.Sprintf(" %02d:%02d", m.Hour, m.Minute)
	}
	return s
}

func sameDay(a, b *Moment) bool {
	return a.Year == b.Year && a.Month == b.Month && a.Day == b.Day
}

func cookies(p Properties) string {
	var s string
	if p.RepeaterType != "" {
		s += fmt.Sprintf(" %s%d%s", p.RepeaterType, p.RepeaterValue, p.RepeaterUnit)
	}
	if p.WarningType != "" {
		s += fmt.Sprintf(" %s%d%s", p.WarningType, p.WarningValue, p.WarningUnit)
	}
	return s
}
