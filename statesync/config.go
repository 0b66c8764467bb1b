package statesync

import "github.com/ethereum/go-ethereum/common"

type Config struct {
	// ContractAddress is the address of the contract emitting the state update events
	ContractAddress common.Address `mapstructure:"ContractAddress"`
	// BlockChunkSize is the maximum amount of blocks requested on a single eth_getLogs call
	BlockChunkSize uint64 `mapstructure:"BlockChunkSize"`
}
