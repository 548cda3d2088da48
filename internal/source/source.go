package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"poolLedger/internal/model"
)

// ErrMissingCredential is returned when a provider needs an API key that is
// not configured.
var ErrMissingCredential = errors.New("missing api credential")

// ConfigError marks a source that cannot run with the current configuration.
// It is never retried.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s source: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// Cursor positions a fetch. Node sources use the head and block window, the
// explorer uses the page number.
type Cursor struct {
	Head uint64
	// HeadTime is when Head was observed; block timestamps are estimated from it.
	HeadTime time.Time
	Window   BlockRange
	Page     int
}

// Page is one batch of raw logs. Next is nil when there is nothing further to
// fetch.
type Page struct {
	Records []model.RawLog
	Next    *Cursor
}

// LogSource fetches pair logs for a single topic0.
type LogSource interface {
	Name() string
	// Start returns the initial cursor shared by every event kind in a sync.
	Start(ctx context.Context) (Cursor, error)
	FetchLogs(ctx context.Context, topic0 common.Hash, cursor Cursor) (Page, error)
}
