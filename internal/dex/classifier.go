package dex

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"poolLedger/internal/model"
)

var (
	ErrMissingTxHash    = errors.New("missing transaction hash")
	ErrKnownTxHash      = errors.New("transaction hash already known")
	ErrUnsupportedTopic = errors.New("unsupported topic0")
	ErrNoDirection      = errors.New("swap direction undetermined")
)

// EventKind names a tracked pair event.
type EventKind string

const (
	EventSwap EventKind = "swap"
	EventMint EventKind = "mint"
	EventBurn EventKind = "burn"
)

// EventKinds is the fixed sync order.
var EventKinds = []EventKind{EventSwap, EventMint, EventBurn}

const (
	swapWords      = 4
	liquidityWords = 2
)

// Topics holds the topic0 signature of each tracked event.
type Topics struct {
	Swap common.Hash
	Mint common.Hash
	Burn common.Hash
}

// Topic returns the signature for kind.
func (t Topics) Topic(kind EventKind) common.Hash {
	switch kind {
	case EventSwap:
		return t.Swap
	case EventMint:
		return t.Mint
	case EventBurn:
		return t.Burn
	default:
		return common.Hash{}
	}
}

// Kind maps a topic0 hex string back to its event.
func (t Topics) Kind(topic0 string) (EventKind, bool) {
	topic0 = strings.ToLower(strings.TrimSpace(topic0))
	if topic0 == "" {
		return "", false
	}
	for _, kind := range EventKinds {
		if strings.ToLower(t.Topic(kind).Hex()) == topic0 {
			return kind, true
		}
	}
	return "", false
}

// HashSet answers membership for lower-cased transaction hashes.
type HashSet interface {
	Has(hash string) bool
}

// Classifier turns pair logs into ledger transactions.
type Classifier struct {
	topics Topics
	codec  AmountCodec
}

func NewClassifier(topics Topics, codec AmountCodec) *Classifier {
	return &Classifier{topics: topics, codec: codec}
}

// Topics returns the signatures the classifier recognises.
func (c *Classifier) Topics() Topics {
	return c.topics
}

// CanDecode checks if the topic0 is tracked.
func (c *Classifier) CanDecode(topic0 string) bool {
	_, ok := c.topics.Kind(topic0)
	return ok
}

// Classify decodes log into a transaction, or rejects it. Hash checks run
// before any payload decoding.
func (c *Classifier) Classify(topic0 string, log model.RawLog, known HashSet) (model.Transaction, error) {
	txHash := strings.ToLower(strings.TrimSpace(log.TxHash))
	if txHash == "" {
		return model.Transaction{}, ErrMissingTxHash
	}
	if known != nil && known.Has(txHash) {
		return model.Transaction{}, ErrKnownTxHash
	}

	kind, ok := c.topics.Kind(topic0)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrUnsupportedTopic, topic0)
	}

	var (
		tx  model.Transaction
		err error
	)
	switch kind {
	case EventSwap:
		tx, err = c.decodeSwap(log.Payload())
	case EventMint:
		tx, err = c.decodeLiquidity(log.Payload(), model.LiquidityAdd)
	case EventBurn:
		tx, err = c.decodeLiquidity(log.Payload(), model.LiquidityRemove)
	}
	if err != nil {
		return model.Transaction{}, err
	}

	notes := txHash
	hash := txHash
	tx.Date = time.Unix(int64(log.Timestamp), 0).UTC()
	tx.Notes = &notes
	tx.TxHash = &hash
	return tx, nil
}

// decodeSwap infers direction from the pair's token ordering: token0 is the
// quote currency, token1 the tracked token.
func (c *Classifier) decodeSwap(payload string) (model.Transaction, error) {
	words, err := c.codec.DecodeWords(payload, swapWords)
	if err != nil {
		return model.Transaction{}, err
	}
	amount0In, amount1In, amount0Out, amount1Out := words[0], words[1], words[2], words[3]

	switch {
	case amount1Out.IsPositive() && amount0In.IsPositive():
		return model.Transaction{Type: model.Buy, Tokens: amount1Out, USDT: amount0In}, nil
	case amount1In.IsPositive() && amount0Out.IsPositive():
		return model.Transaction{Type: model.Sell, Tokens: amount1In, USDT: amount0Out}, nil
	default:
		return model.Transaction{}, ErrNoDirection
	}
}

func (c *Classifier) decodeLiquidity(payload string, txType model.TransactionType) (model.Transaction, error) {
	words, err := c.codec.DecodeWords(payload, liquidityWords)
	if err != nil {
		return model.Transaction{}, err
	}
	return model.Transaction{Type: txType, Tokens: words[1], USDT: words[0]}, nil
}
