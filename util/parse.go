package util

import (
	"strconv"
	"strings"
)

// ParseSize converts a human readable size such as "4MB" or "512KB" into
// bytes. Plain integers are taken as bytes already. It returns defaultBytes
// when s is empty or cannot be parsed.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(s, "MB"):
		multiplier = 1 << 20
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSpace(s[:len(s)-1])
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val < 0 {
		return defaultBytes
	}
	return val * multiplier
}

// MaskSecret keeps the first visiblePrefix characters of s and hides the
// rest, so credentials can appear in logs without being exposed. Values no
// longer than the visible prefix are masked entirely.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
