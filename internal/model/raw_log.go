package model

import "strings"

// RawLog is a provider-neutral pair event log.
type RawLog struct {
	TxHash      string   `json:"tx_hash"`
	BlockNumber uint64   `json:"block_number"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	// Timestamp is unix seconds. Node sources estimate it from the block offset.
	Timestamp          uint64 `json:"timestamp"`
	TimestampEstimated bool   `json:"timestamp_estimated"`
	Source             string `json:"source"`
}

// Topic0 returns the event signature topic or an empty string.
func (l RawLog) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return l.Topics[0]
}

// Payload returns the data field without its 0x prefix.
func (l RawLog) Payload() string {
	return strings.TrimPrefix(strings.TrimPrefix(l.Data, "0x"), "0X")
}
