// Package utils holds the small helpers shared by the services and clients:
// generic slice processing, id parsing and input checks.
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/* some Functional Programming in Go */
// map
type mapFunc[E any, R any] func(E) R

// Map function definition of a functional programming "function"
func Map[S ~[]E, E any, R any](s S, f mapFunc[E, R]) []R {
	result := make([]R, len(s))
	for i, e := range s {
		result[i] = f(e)
	}

	return result
}

// filter
type keepFunc[E any] func(E) bool

// Filter function definition of a functional programming "function"
func Filter[S ~[]E, E any](s S, f keepFunc[E]) S {
	result := S{}
	for _, v := range s {
		if f(v) {
			result = append(result, v)
		}
	}

	return result
}

// GroupBy buckets s by key, keeping the order of first appearance of every key.
func GroupBy[E any, K comparable](s []E, key func(E) K) ([]K, map[K][]E) {
	order := []K{}
	groups := map[K][]E{}
	for _, v := range s {
		k := key(v)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	return order, groups
}

// ParseID accepts only strictly positive ids.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseOffset reads a paging offset. Empty means 0.
func ParseOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return n, nil
}

// SplitToInt64 will perform a string split and parse every part as an int64
func SplitToInt64(input, separator string) ([]int64, error) {
	parts := strings.Split(input, separator)

	result := make([]int64, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		value, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}

	return result, nil
}

// SplitFields splits a comma separated query value, dropping empty parts.
func SplitFields(input string) []string {
	return Filter(Map(strings.Split(input, ","), strings.TrimSpace), func(s string) bool { return s != "" })
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9@_.\-]+$`)

// IsValidUsername matches the characters keycloak allows in usernames.
func IsValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// SizeInMb formats bytes as megabytes.
func SizeInMb(s int64) float64 {
	return float64(s) / (1 << 20)
}
