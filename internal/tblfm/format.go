package tblfm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var durationPattern = regexp.MustCompile(`^(-)?(\d+):(\d{2})(?::(\d{2}))?$`)

// ParseDuration converts [-]H:MM[:SS] to seconds.
func ParseDuration(s string) (int, bool) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[2])
	mins, _ := strconv.Atoi(m[3])
	secs := 0
	if m[4] != "" {
		secs, _ = strconv.Atoi(m[4])
	}
	total := h*3600 + mins*60 + secs
	if m[1] == "-" {
		total = -total
	}
	return total, true
}

func splitSign(seconds int) (string, int) {
	if seconds < 0 {
		return "-", -seconds
	}
	return "", seconds
}

// FormatDurationHMS renders seconds as H:MM:SS.
func FormatDurationHMS(seconds int) string {
	sign, s := splitSign(seconds)
	return fmt.Sprintf("%s%d:%02d:%02d", sign, s/3600, (s%3600)/60, s%60)
}

// FormatDurationHM renders seconds as H:MM.
func FormatDurationHM(seconds int) string {
	sign, s := splitSign(seconds)
	return fmt.Sprintf("%s%d:%02d", sign, s/3600, (s%3600)/60)
}

// FormatDurationDecimalHours renders seconds as hours with two decimals.
func FormatDurationDecimalHours(seconds int) string {
	return fmt.Sprintf("%.2f", float64(seconds)/3600)
}

var printfPattern = regexp.MustCompile(`^%(\d+)?(?:\.(\d+))?([dfes])(.*)$`)

// FormatResult renders a computed value. A duration flag in format wins
// over a printf pattern; without a format integers pass through and other
// values get at most two decimals.
func FormatResult(v float64, format string) string {
	switch DurationMode(format) {
	case 'T':
		return FormatDurationHMS(int(math.Round(v)))
	case 'U':
		return FormatDurationHM(int(math.Round(v)))
	case 't':
		return FormatDurationDecimalHours(int(math.Round(v)))
	}

	m := printfPattern.FindStringSubmatch(strings.TrimSpace(format))
	if m == nil {
		return defaultNumber(v)
	}
	width, _ := strconv.Atoi(m[1])
	prec := -1
	if m[2] != "" {
		prec, _ = strconv.Atoi(m[2])
	}
	var out string
	switch m[3] {
	case "d":
		out = strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	case "f":
		if prec < 0 {
			prec = 2
		}
		out = strconv.FormatFloat(v, 'f', prec, 64)
	case "e":
		out = exponential(v, prec)
	case "s":
		out = plainNumber(v)
	}
	if len(out) < width {
		out = strings.Repeat(" ", width-len(out)) + out
	}
	return out + strings.ReplaceAll(m[4], "%%", "%")
}

func defaultNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func plainNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// exponential mimics the short exponent form "1.23e+4".
func exponential(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'e', prec, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

// numberText renders an intermediate value so Evaluate can read it back.
func numberText(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}
