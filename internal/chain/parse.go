package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseTopic converts a 0x-prefixed 32-byte hex string into common.Hash.
func ParseTopic(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid topic: %q", input)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid topic length: %q", input)
	}
	return common.BytesToHash(data), nil
}
