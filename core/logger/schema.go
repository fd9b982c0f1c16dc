package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// enumerations lists the closed value sets of well-known keys.
// Unknown values are kept for status and dropped for the others.
var enumerations = map[string]map[string]struct{}{
	"status":  set("ok", "fail", "skip", "retry", "rate_limited", "cancelled", "expired"),
	"cache":   set("hit", "miss", "purge"),
	"outcome": set("prompted", "rejected", "confirm", "committed", "cancelled", "failed", "idle", "ignored", "results", "not_found", "expired"),
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"op",
	"cb_key",
	"step",
	"outcome",
	"duration_ms",
	"listing_id",
	"position",
	"from",
	"to",
	"brand",
	"model",
	"year",
	"city",
	"max_price",
	"matched",
	"shown",
	"count",
	"cache",
	"payload",
	"field",
	"mode",
	"listen",
	"public_url",
	"channel",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"published",
	"failed",
}
