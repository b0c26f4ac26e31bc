package session

import (
	cryptorand "crypto/rand"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var sessionNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9\-]`)

var (
	entropyMu   sync.Mutex
	ulidEntropy = ulid.Monotonic(cryptorand.Reader, 0)
)

func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// GenerateSessionID returns a unique session ID using the provided base name
func GenerateSessionID(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "session"
	}
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))
	base = sessionNameSanitizer.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "session"
	}

	return fmt.Sprintf("%s-%s", base, strings.ToLower(newULID()))
}

// NewRequestID returns the value sent in the x-request-id header.
func NewRequestID() string {
	return uuid.NewString()
}

// sessionBase picks a readable prefix for a session ID from its target.
func sessionBase(target string) string {
	target = strings.TrimSpace(target)
	if i := strings.Index(target, "://"); i >= 0 {
		target = target[i+3:]
	}
	target = strings.Trim(target, "/")
	if host := hostnameFromTarget(target); host != "" {
		return host
	}
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return target
}
