// Package calc evaluates inline calculator queries: arithmetic
// expressions, currency conversion against a fixed rate table, and
// timezone conversion. Non-expressions produce no result, so typing an
// app name never yields a calculator row.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
)

// maxHistory bounds the in-memory calculation history.
const maxHistory = 50

// exchangeRates maps currency code to its USD-relative rate.
// Static table: live rates are a non-goal, parity with typical offline
// launcher behavior.
var exchangeRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.5,
	"CNY": 7.24,
	"AUD": 1.53,
	"CAD": 1.38,
	"CHF": 0.88,
	"INR": 83.2,
	"KRW": 1320.0,
}

// normalizeTimezone maps common abbreviations to IANA names.
func normalizeTimezone(tz string) string {
	switch strings.ToUpper(tz) {
	case "EST", "EDT", "ET":
		return "America/New_York"
	case "CST", "CDT", "CT":
		return "America/Chicago"
	case "MST", "MDT", "MT":
		return "America/Denver"
	case "PST", "PDT", "PT":
		return "America/Los_Angeles"
	case "UTC", "GMT":
		return "UTC"
	case "JST":
		return "Asia/Tokyo"
	case "KST":
		return "Asia/Seoul"
	case "IST":
		return "Asia/Kolkata"
	case "CET", "CEST":
		return "Europe/Paris"
	case "BST":
		return "Europe/London"
	case "AEST", "AEDT":
		return "Australia/Sydney"
	default:
		return tz
	}
}

// Entry is one past calculation.
type Entry struct {
	Query  string
	Result string
}

// Calculator evaluates queries and keeps a bounded history.
// Safe for concurrent use.
type Calculator struct {
	mu      sync.Mutex
	history []Entry

	// now is swapped in tests for deterministic timezone output.
	now func() time.Time
}

// New returns a ready calculator.
func New() *Calculator {
	return &Calculator{now: time.Now}
}

// Evaluate tries currency, then timezone, then plain math. Returns the
// formatted result and true, or "" and false for non-expressions.
func (c *Calculator) Evaluate(query string) (string, bool) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", false
	}

	if len(strings.Fields(trimmed)) >= 3 {
		if out, ok := c.convertCurrency(trimmed); ok {
			c.record(trimmed, out)
			return out, true
		}
		if out, ok := c.convertTimezone(trimmed); ok {
			c.record(trimmed, out)
			return out, true
		}
	}

	if v, ok := evalMath(trimmed); ok {
		out := formatNumber(v)
		c.record(trimmed, out)
		return out, true
	}

	return "", false
}

// History returns a copy of the calculation history, oldest first.
func (c *Calculator) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory empties the history.
func (c *Calculator) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

func (c *Calculator) record(query, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) >= maxHistory {
		c.history = c.history[1:]
	}
	c.history = append(c.history, Entry{Query: query, Result: result})
}

// evalMath evaluates an arithmetic expression. Identifiers are rejected
// by the empty environment, so app names and prose never evaluate.
func evalMath(input string) (float64, bool) {
	out, err := expr.Eval(input, nil)
	if err != nil {
		return 0, false
	}
	switch v := out.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// formatNumber renders integers without a fraction and floats with up to
// six significant decimals, trailing zeros trimmed.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e10 {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

// convertCurrency handles "100 usd to eur", "100 usd eur", "100 usd in eur".
func (c *Calculator) convertCurrency(query string) (string, bool) {
	parts := strings.Fields(query)
	if len(parts) < 3 {
		return "", false
	}

	amount, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", false
	}

	from := strings.ToUpper(parts[1])
	var to string
	switch {
	case len(parts) == 4 && strings.EqualFold(parts[2], "to"):
		to = strings.ToUpper(parts[3])
	case len(parts) == 4 && strings.EqualFold(parts[2], "in"):
		to = strings.ToUpper(parts[3])
	case len(parts) == 3:
		to = strings.ToUpper(parts[2])
	default:
		return "", false
	}

	fromRate, ok := exchangeRates[from]
	if !ok {
		return "", false
	}
	toRate, ok := exchangeRates[to]
	if !ok {
		return "", false
	}

	result := amount / fromRate * toRate
	return fmt.Sprintf("%.2f %s", result, to), true
}

// convertTimezone handles "now in pst" and "3pm est to pst".
func (c *Calculator) convertTimezone(query string) (string, bool) {
	parts := strings.Fields(query)
	if len(parts) < 3 {
		return "", false
	}

	// "now in <tz>"
	if strings.EqualFold(parts[0], "now") && strings.EqualFold(parts[1], "in") {
		loc, err := time.LoadLocation(normalizeTimezone(parts[2]))
		if err != nil {
			return "", false
		}
		target := c.now().In(loc)
		return fmt.Sprintf("%s %s", target.Format("03:04 PM"), strings.ToUpper(parts[2])), true
	}

	// "<time> <tz> [to|in] <tz>"
	var toStr string
	switch {
	case len(parts) == 4 && (strings.EqualFold(parts[2], "to") || strings.EqualFold(parts[2], "in")):
		toStr = parts[3]
	case len(parts) == 3:
		toStr = parts[2]
	default:
		return "", false
	}

	fromLoc, err := time.LoadLocation(normalizeTimezone(parts[1]))
	if err != nil {
		return "", false
	}
	toLoc, err := time.LoadLocation(normalizeTimezone(toStr))
	if err != nil {
		return "", false
	}

	src, ok := c.parseClock(parts[0], fromLoc)
	if !ok {
		return "", false
	}

	target := src.In(toLoc)
	return fmt.Sprintf("%s %s", target.Format("03:04 PM"), strings.ToUpper(toStr)), true
}

// parseClock parses "15:04", "3pm", "11am" as a time today in loc.
func (c *Calculator) parseClock(s string, loc *time.Location) (time.Time, bool) {
	today := c.now().In(loc)
	day := func(h, m int) time.Time {
		return time.Date(today.Year(), today.Month(), today.Day(), h, m, 0, 0, loc)
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		hh, err1 := strconv.Atoi(h)
		mm, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			return time.Time{}, false
		}
		return day(hh, mm), true
	}

	lower := strings.ToLower(s)
	if rest, ok := strings.CutSuffix(lower, "pm"); ok {
		h, err := strconv.Atoi(rest)
		if err != nil || h < 1 || h > 12 {
			return time.Time{}, false
		}
		if h != 12 {
			h += 12
		}
		return day(h, 0), true
	}
	if rest, ok := strings.CutSuffix(lower, "am"); ok {
		h, err := strconv.Atoi(rest)
		if err != nil || h < 1 || h > 12 {
			return time.Time{}, false
		}
		if h == 12 {
			h = 0
		}
		return day(h, 0), true
	}

	return time.Time{}, false
}
