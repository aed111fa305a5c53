package tasks

import (
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/ckx/internal/shared"
)

// warningPrefix marks exported ROBLOSECURITY tokens in cookie dump files.
const warningPrefix = "_|WARNING:"

// InputPolicy is the local validation applied before any batch is submitted.
// One policy instance replaces the per-call-site thresholds older revisions used.
type InputPolicy struct {
	MinCookieLength int // lines shorter than this never qualify
	MaxBatchSize    int // largest batch accepted in one request
}

// DefaultInputPolicy mirrors the config defaults.
func DefaultInputPolicy() InputPolicy {
	return InputPolicy{MinCookieLength: 50, MaxBatchSize: 3000}
}

// NormalizeCookie strips whitespace and an embedding ".ROBLOSECURITY=" header
// fragment so tokens pasted from a cookie header submit cleanly.
func NormalizeCookie(line string) string {
	cookie := strings.TrimSpace(line)

	if idx := strings.Index(cookie, ".ROBLOSECURITY="); idx >= 0 {
		cookie = cookie[idx+len(".ROBLOSECURITY="):]
		if end := strings.Index(cookie, ";"); end >= 0 {
			cookie = cookie[:end]
		}
		cookie = strings.TrimSpace(cookie)
	}

	return cookie
}

// PrepareBatch normalizes raw input lines and applies the policy.
//
// Fails with [shared.ErrValidation] when no line qualifies or the batch
// exceeds the maximum; validation failures never reach the network.
func PrepareBatch(lines []string, policy InputPolicy) ([]string, error) {
	var cookies []string
	for _, line := range lines {
		cookie := NormalizeCookie(line)
		if cookie == "" {
			continue
		}
		if policy.MinCookieLength > 0 && len(cookie) < policy.MinCookieLength {
			continue
		}
		cookies = append(cookies, cookie)
	}

	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: no qualifying cookies in input", shared.ErrValidation)
	}
	if policy.MaxBatchSize > 0 && len(cookies) > policy.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d cookies exceeds batch limit of %d", shared.ErrValidation, len(cookies), policy.MaxBatchSize)
	}

	return cookies, nil
}

// ReadCookieFile loads candidate cookie lines from a dump file.
//
// When any line carries the export warning prefix only those lines are kept,
// matching how browser exports mark real tokens; otherwise all non-empty
// lines are returned for PrepareBatch to filter.
func ReadCookieFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	var all, marked []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		all = append(all, line)
		if strings.HasPrefix(line, warningPrefix) {
			marked = append(marked, line)
		}
	}

	if len(marked) > 0 {
		return marked, nil
	}
	return all, nil
}
