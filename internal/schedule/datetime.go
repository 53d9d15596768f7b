// Package schedule sorts club work into the board the members and leaders see.
//
// Assignments and smart documents arrive from the API as raw records carrying
// timestamp strings. They are parsed, classified into a status label, grouped
// into the current / upcoming / overdue / past buckets and finally filtered and
// sorted per bucket. Everything in here is pure: the caller supplies "now".
package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SQLLayout is the DATETIME form the API emits. Values in this form are UTC.
const SQLLayout = "2006-01-02 15:04:05"

var (
	ErrEmptyDateTime     = errors.New("empty datetime")
	ErrMalformedDateTime = errors.New("malformed datetime")
)

// Parser turns API timestamp strings into instants.
// Location is used for ISO strings without a zone, date-only strings included.
type Parser struct {
	Location *time.Location
}

var DefaultParser = Parser{Location: time.Local}

// ParseDateTime parses s with the DefaultParser.
func ParseDateTime(s string) (time.Time, error) {
	return DefaultParser.Parse(s)
}

// Parse reads either "YYYY-MM-DD HH:MM[:SS]" (always UTC) or an ISO-8601 string.
func (p Parser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDateTime
	}

	if strings.Contains(s, " ") {
		t, err := parseSQL(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDateTime, s)
		}
		return t, nil
	}

	t, err := p.parseISO(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDateTime, s)
	}
	return t, nil
}

// ParseOptional is Parse for nullable fields: an empty string yields the zero time.
func (p Parser) ParseOptional(s string) (time.Time, error) {
	t, err := p.Parse(s)
	if errors.Is(err, ErrEmptyDateTime) {
		return time.Time{}, nil
	}
	return t, err
}

func parseSQL(s string) (time.Time, error) {
	datePart, timePart, _ := strings.Cut(s, " ")

	dp := strings.Split(datePart, "-")
	tp := strings.Split(strings.TrimSpace(timePart), ":")
	if len(dp) != 3 || len(tp) < 2 || len(tp) > 3 {
		return time.Time{}, ErrMalformedDateTime
	}

	// fractional seconds are dropped
	if len(tp) == 3 {
		tp[2], _, _ = strings.Cut(tp[2], ".")
	} else {
		tp = append(tp, "0")
	}

	nums := make([]int, 0, 6)
	for _, part := range append(dp, tp...) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, err
		}
		nums = append(nums, n)
	}

	year, month, day := nums[0], nums[1], nums[2]
	hour, minute, second := nums[3], nums[4], nums[5]
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return time.Time{}, ErrMalformedDateTime
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (p Parser) parseISO(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	loc := p.Location
	if loc == nil {
		loc = time.Local
	}

	var lastErr error
	for _, layout := range zonelessLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatSQL renders t in the API's UTC DATETIME form. The zero time renders empty.
func FormatSQL(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(SQLLayout)
}

// Timestamp is a nullable instant that travels as a SQL DATETIME string in JSON
// and as timestamptz in postgres. The zero value is NULL.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t Timestamp) Ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	tt := t.Time
	return &tt
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(FormatSQL(t.Time))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := DefaultParser.ParseOptional(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Scan implements sql.Scanner so pgx can read timestamptz columns.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v.UTC()
	case string:
		parsed, err := DefaultParser.ParseOptional(v)
		if err != nil {
			return err
		}
		t.Time = parsed
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time, nil
}
