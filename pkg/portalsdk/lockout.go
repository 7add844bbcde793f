package portalsdk

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultLockout is used when a response signals a lockout without a
// duration the client can read.
const DefaultLockout = 15 * time.Minute

// MaxLockout bounds any parsed lockout.
const MaxLockout = 24 * time.Hour

var (
	tryAgainIn = regexp.MustCompile(`(?i)try again in (\d+) (minute|min|second|sec)s?`)
	lockedFor  = regexp.MustCompile(`(?i)locked for (\d+) (second|sec|minute|min)s?`)
)

// ParseLockout extracts a login lockout duration from a failed login.
//
// The structured lockout_seconds field wins when present. Otherwise two
// message formats are understood:
//
//	"Too many failed attempts. Please try again in 15 minutes."
//	"Account locked for 900 seconds"
//
// A message that mentions a lock without a readable duration, or a 423
// status, yields DefaultLockout. Anything else is not a lockout. Durations
// are capped at MaxLockout.
func ParseLockout(status int, lockoutSeconds *int, message string) (time.Duration, bool) {
	if lockoutSeconds != nil {
		if *lockoutSeconds > 0 {
			return capLockout(*lockoutSeconds, time.Second), true
		}
		return 0, false
	}

	for _, re := range []*regexp.Regexp{tryAgainIn, lockedFor} {
		if m := re.FindStringSubmatch(message); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				return DefaultLockout, true
			}
			return capLockout(n, unit(m[2])), true
		}
	}

	lower := strings.ToLower(message)
	if status == http.StatusLocked || strings.Contains(lower, "locked") || strings.Contains(lower, "too many") {
		return DefaultLockout, true
	}
	return 0, false
}

func unit(s string) time.Duration {
	if strings.HasPrefix(strings.ToLower(s), "min") {
		return time.Minute
	}
	return time.Second
}

func capLockout(n int, unit time.Duration) time.Duration {
	if n > int(MaxLockout/unit) {
		return MaxLockout
	}
	return time.Duration(n) * unit
}
