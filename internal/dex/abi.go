package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const pairABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount0In", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1In", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount0Out", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1Out", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"}
    ],
    "name": "Mint",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"}
    ],
    "name": "Burn",
    "type": "event"
  }
]`

var (
	pairABI     abi.ABI
	pairABIOnce sync.Once
	pairABIErr  error
)

// PairABI returns the parsed V2 pair event ABI.
func PairABI() (abi.ABI, error) {
	pairABIOnce.Do(func() {
		pairABI, pairABIErr = abi.JSON(strings.NewReader(pairABIJSON))
	})
	return pairABI, pairABIErr
}

// DefaultTopics returns the Swap, Mint and Burn signatures of a V2 pair.
func DefaultTopics() (Topics, error) {
	parsed, err := PairABI()
	if err != nil {
		return Topics{}, err
	}
	return Topics{
		Swap: parsed.Events["Swap"].ID,
		Mint: parsed.Events["Mint"].ID,
		Burn: parsed.Events["Burn"].ID,
	}, nil
}
