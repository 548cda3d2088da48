package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"poolLedger/internal/dex"
	"poolLedger/internal/ledger"
	"poolLedger/internal/model"
	"poolLedger/internal/source"
	"poolLedger/internal/storage"
)

// ErrSyncInProgress is returned when Sync is called while another run holds
// the orchestrator.
var ErrSyncInProgress = errors.New("sync already in progress")

const defaultMaxPages = 1

// Archive receives the raw material of each sync for audit.
type Archive interface {
	PutLogBatch(logs []model.RawLog) error
	PutDecodeErrors(errs []model.DecodeError) error
}

// Summary is the outcome of one sync run. On failure Synced is zero, Message
// holds the error and the ledger reflects whatever is persisted.
type Summary struct {
	Synced  int    `json:"synced"`
	Skipped int    `json:"skipped"`
	Message string `json:"message,omitempty"`
	ledger.Snapshot
}

// Config holds orchestrator settings.
type Config struct {
	// MaxPages bounds how many pages are fetched per event kind.
	MaxPages int
}

// Deps are the collaborators of an Orchestrator. Archive and Metrics are
// optional.
type Deps struct {
	Source     source.LogSource
	Classifier *dex.Classifier
	Store      storage.Store
	Archive    Archive
	Metrics    *Metrics
	Logger     *zap.Logger
}

// Orchestrator runs the fetch, classify, merge and aggregate sequence. At most
// one sync runs at a time per orchestrator.
type Orchestrator struct {
	cfg        Config
	source     source.LogSource
	classifier *dex.Classifier
	store      storage.Store
	ledger     *ledger.Service
	archive    Archive
	metrics    *Metrics
	logger     *zap.Logger

	running sync.Mutex
}

func NewOrchestrator(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("log source is nil")
	}
	if deps.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		source:     deps.Source,
		classifier: deps.Classifier,
		store:      deps.Store,
		ledger:     ledger.NewService(deps.Store, logger),
		archive:    deps.Archive,
		metrics:    deps.Metrics,
		logger:     logger,
	}, nil
}

// Sync pulls the latest pair events into the ledger. The returned Summary is
// always populated from the store, even when err is non-nil. Configuration
// errors are returned as *source.ConfigError.
func (o *Orchestrator) Sync(ctx context.Context) (Summary, error) {
	if !o.running.TryLock() {
		return o.failed(ctx, ErrSyncInProgress), ErrSyncInProgress
	}
	defer o.running.Unlock()

	started := time.Now()
	summary, err := o.sync(ctx)
	outcome := "ok"
	switch {
	case err == nil:
	case source.IsConfigError(err):
		outcome = "config_error"
	default:
		outcome = "failed"
	}
	o.metrics.observeSync(outcome, time.Since(started))

	if err != nil {
		o.logger.Warn("sync failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return summary, err
	}
	o.logger.Info("sync complete",
		zap.String("source", o.source.Name()),
		zap.Int("synced", summary.Synced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("transactions", len(summary.Transactions)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

func (o *Orchestrator) sync(ctx context.Context) (Summary, error) {
	persisted, err := o.ledger.KnownHashes(ctx)
	if err != nil {
		return o.failed(ctx, err), err
	}

	cursor, err := o.source.Start(ctx)
	if err != nil {
		return o.failed(ctx, err), err
	}

	claimed := persisted.Clone()
	var (
		candidates   []model.Transaction
		decodeErrors []model.DecodeError
		skipped      int
	)
	for _, kind := range dex.EventKinds {
		batch, err := o.collect(ctx, kind, cursor, claimed)
		if err != nil {
			if source.IsConfigError(err) || ctx.Err() != nil {
				return o.failed(ctx, err), err
			}
			o.metrics.fetchFailed(string(kind))
			o.logger.Warn("fetch failed, skipping event kind", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		claimed = batch.claimed
		candidates = append(candidates, batch.candidates...)
		decodeErrors = append(decodeErrors, batch.decodeErrors...)
		skipped += batch.skipped
	}

	if o.archive != nil && len(decodeErrors) > 0 {
		if err := o.archive.PutDecodeErrors(decodeErrors); err != nil {
			o.logger.Warn("archive decode errors failed", zap.Error(err))
		}
	}

	result, err := ledger.Merge(ctx, candidates, persisted, o.store)
	o.metrics.merged(result)
	if err != nil {
		return o.failed(ctx, err), err
	}
	skipped += result.Skipped + result.Collisions

	snapshot, err := o.ledger.List(ctx)
	if err != nil {
		return Summary{Message: err.Error(), Snapshot: snapshot}, err
	}
	o.metrics.snapshot(snapshot)

	return Summary{Synced: result.Inserted, Skipped: skipped, Snapshot: snapshot}, nil
}

type kindBatch struct {
	candidates   []model.Transaction
	decodeErrors []model.DecodeError
	claimed      *ledger.KnownHashes
	skipped      int
}

// collect fetches and classifies up to MaxPages pages of one event kind. On
// error the whole kind is discarded, including hashes it claimed.
func (o *Orchestrator) collect(ctx context.Context, kind dex.EventKind, cursor source.Cursor, claimed *ledger.KnownHashes) (kindBatch, error) {
	topic := o.classifier.Topics().Topic(kind)
	batch := kindBatch{claimed: claimed.Clone()}

	next := &cursor
	for page := 0; page < o.cfg.MaxPages && next != nil; page++ {
		result, err := o.source.FetchLogs(ctx, topic, *next)
		if err != nil {
			return kindBatch{}, err
		}
		next = result.Next

		o.metrics.fetched(string(kind), len(result.Records))
		o.logger.Debug("logs fetched", zap.String("kind", string(kind)), zap.Int("page", page+1), zap.Int("logs", len(result.Records)))

		if o.archive != nil && len(result.Records) > 0 {
			if err := o.archive.PutLogBatch(result.Records); err != nil {
				o.logger.Warn("archive raw logs failed", zap.Error(err))
			}
		}

		for _, record := range result.Records {
			tx, err := o.classifier.Classify(topic.Hex(), record, batch.claimed)
			if err != nil {
				o.metrics.rejected(rejectReason(err))
				batch.skipped++
				if !errors.Is(err, dex.ErrKnownTxHash) {
					batch.decodeErrors = append(batch.decodeErrors, model.DecodeErrorFromLog(record, err))
				}
				continue
			}
			batch.claimed.Add(tx.Hash())
			batch.candidates = append(batch.candidates, tx)
		}
	}
	return batch, nil
}

// failed builds the degraded summary from whatever the store holds.
func (o *Orchestrator) failed(ctx context.Context, cause error) Summary {
	// The caller's context may be the reason for failure; the read still runs.
	readCtx := context.WithoutCancel(ctx)
	snapshot, err := o.ledger.List(readCtx)
	if err != nil {
		o.logger.Error("load persisted ledger failed", zap.Error(err))
	}
	return Summary{Message: cause.Error(), Snapshot: snapshot}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, dex.ErrKnownTxHash):
		return "known_hash"
	case errors.Is(err, dex.ErrMissingTxHash):
		return "missing_hash"
	case errors.Is(err, dex.ErrNoDirection):
		return "no_direction"
	case errors.Is(err, dex.ErrUnsupportedTopic):
		return "unsupported_topic"
	default:
		return "decode"
	}
}
