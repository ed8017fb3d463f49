// Package timeouts bounds every store and identity call the service makes.
//
// Each call site picks a class by what it touches:
//   - Ping: MongoDB connectivity checks
//   - Short: one suggestion insert, one session lookup, one login
//   - Medium: one page of suggestions or audit events
//   - Long: schema and index reconciliation at startup
//   - Batch: a full CSV export
//
// Defaults can be overridden at startup with HAKBANG_TIMEOUT_<CLASS>.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EnvPrefix is prepended to a class name to form its override variable.
const EnvPrefix = "HAKBANG_TIMEOUT_"

const (
	ping = iota
	short
	medium
	long
	batch
	numClasses
)

var classes = [numClasses]struct {
	name string
	def  time.Duration
}{
	ping:   {"PING", 2 * time.Second},
	short:  {"SHORT", 5 * time.Second},
	medium: {"MEDIUM", 10 * time.Second},
	long:   {"LONG", 30 * time.Second},
	batch:  {"BATCH", 60 * time.Second},
}

var (
	mu      sync.RWMutex
	current [numClasses]time.Duration
)

func init() { setDefaults() }

func setDefaults() {
	mu.Lock()
	defer mu.Unlock()
	for i, c := range classes {
		current[i] = c.def
	}
}

func get(class int) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current[class]
}

func Ping() time.Duration   { return get(ping) }
func Short() time.Duration  { return get(short) }
func Medium() time.Duration { return get(medium) }
func Long() time.Duration   { return get(long) }
func Batch() time.Duration  { return get(batch) }

// ConfigureFromEnv applies HAKBANG_TIMEOUT_PING, _SHORT, _MEDIUM, _LONG and
// _BATCH. Values use time.ParseDuration syntax; unparsable or non-positive
// values are ignored. It returns how many classes were overridden.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()

	n := 0
	for i, c := range classes {
		d, err := time.ParseDuration(os.Getenv(EnvPrefix + c.name))
		if err != nil || d <= 0 {
			continue
		}
		current[i] = d
		n++
	}
	return n
}

// WithTimeout is context.WithTimeout whose cancel func logs when the
// deadline was what ended the operation.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
