package model

// DecodeError records a log that was skipped during classification.
type DecodeError struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Topic0      string `json:"topic0"`
	Source      string `json:"source"`
	Error       string `json:"error"`
}

// DecodeErrorFromLog builds a DecodeError for a skipped log.
func DecodeErrorFromLog(log RawLog, err error) DecodeError {
	return DecodeError{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Topic0:      log.Topic0(),
		Source:      log.Source,
		Error:       err.Error(),
	}
}
