package logger

import (
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Status maps an error to the status attribute value.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Err returns the err attribute, or an empty attr that the handler prunes.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("err", err.Error())
}

// ErrCode derives a stable err_code from the outermost typed error in the chain.
// Errors exposing Code() string win; otherwise fallback is returned.
func ErrCode(err error, fallback string) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if c := strings.TrimSpace(coded.Code()); c != "" {
			return c
		}
	}
	return fallback
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
