package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolLedger/internal/model"
)

const NodeSourceName = "node"

// NodeClient is the RPC surface used by NodeSource. *chain.Client satisfies it.
type NodeClient interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, address common.Address, topic0 common.Hash) ([]types.Log, error)
}

// NodeConfig holds the settings of a direct-node source.
type NodeConfig struct {
	Pair         common.Address
	BlockRange   uint64
	BlockTime    time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// NodeSource reads pair logs from an EVM JSON-RPC node. Log timestamps are
// estimated from the distance to the chain head.
type NodeSource struct {
	cfg    NodeConfig
	client NodeClient
	pacer  *Pacer
	logger *zap.Logger
	now    func() time.Time
}

// NewNodeSource builds a NodeSource. A nil pacer disables pacing.
func NewNodeSource(cfg NodeConfig, client NodeClient, pacer *Pacer, logger *zap.Logger) *NodeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pacer == nil {
		pacer = NewPacer(0)
	}
	return &NodeSource{
		cfg:    cfg,
		client: client,
		pacer:  pacer,
		logger: logger,
		now:    time.Now,
	}
}

func (s *NodeSource) Name() string {
	return NodeSourceName
}

// Start reads the chain head and returns the latest window.
func (s *NodeSource) Start(ctx context.Context) (Cursor, error) {
	if s.client == nil {
		return Cursor{}, &ConfigError{Source: NodeSourceName, Err: fmt.Errorf("rpc client is nil")}
	}

	var head uint64
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}
		var err error
		head, err = s.client.LatestBlockNumber(ctx)
		if err != nil {
			s.logger.Warn("block number fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return Cursor{}, fmt.Errorf("get latest block: %w", err)
	}

	return Cursor{Head: head, HeadTime: s.now(), Window: LatestWindow(head, s.cfg.BlockRange)}, nil
}

// FetchLogs reads one window. The next cursor walks back one window toward
// genesis.
func (s *NodeSource) FetchLogs(ctx context.Context, topic0 common.Hash, cursor Cursor) (Page, error) {
	if s.client == nil {
		return Page{}, &ConfigError{Source: NodeSourceName, Err: fmt.Errorf("rpc client is nil")}
	}
	window := cursor.Window

	var logs []types.Log
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}
		var err error
		logs, err = s.client.FilterLogs(ctx, window.From, window.To, s.cfg.Pair, topic0)
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", window.From), zap.Uint64("to", window.To))
		}
		return err
	})
	if err != nil {
		return Page{}, fmt.Errorf("filter logs: %w", err)
	}

	headTime := cursor.HeadTime
	if headTime.IsZero() {
		headTime = s.now()
	}
	records := make([]model.RawLog, 0, len(logs))
	for _, log := range logs {
		records = append(records, s.buildRawLog(log, cursor.Head, headTime))
	}

	page := Page{Records: records}
	if prev, ok := window.Previous(s.cfg.BlockRange); ok {
		next := Cursor{Head: cursor.Head, HeadTime: headTime, Window: prev}
		page.Next = &next
	}
	return page, nil
}

func (s *NodeSource) buildRawLog(log types.Log, head uint64, now time.Time) model.RawLog {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.RawLog{
		TxHash:             log.TxHash.Hex(),
		BlockNumber:        log.BlockNumber,
		LogIndex:           uint64(log.Index),
		Address:            log.Address.Hex(),
		Topics:             topics,
		Data:               hexutil.Encode(log.Data),
		Timestamp:          estimateTimestamp(now, head, log.BlockNumber, s.cfg.BlockTime),
		TimestampEstimated: true,
		Source:             NodeSourceName,
	}
}

// estimateTimestamp returns now - (head-block)*blockTime in unix seconds.
func estimateTimestamp(now time.Time, head, block uint64, blockTime time.Duration) uint64 {
	var blocksAgo uint64
	if head > block {
		blocksAgo = head - block
	}
	ts := now.Add(-time.Duration(blocksAgo) * blockTime).Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}
