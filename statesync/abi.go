package statesync

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	logStateUpdateEvent    = "LogStateUpdate"
	logPositionUpdateEvent = "LogPositionUpdate"
	logAssetPriceEvent     = "LogAssetPrice"
)

const stateUpdatesABI = `[
	{
		"anonymous": false,
		"name": "LogStateUpdate",
		"type": "event",
		"inputs": [
			{"indexed": true, "name": "sequenceNumber", "type": "uint256"},
			{"indexed": false, "name": "stateTransitionFact", "type": "bytes32"},
			{"indexed": false, "name": "rootHash", "type": "bytes32"},
			{"indexed": false, "name": "timestamp", "type": "uint256"}
		]
	},
	{
		"anonymous": false,
		"name": "LogPositionUpdate",
		"type": "event",
		"inputs": [
			{"indexed": true, "name": "sequenceNumber", "type": "uint256"},
			{"indexed": false, "name": "positionOrVaultId", "type": "uint256"},
			{"indexed": false, "name": "starkKey", "type": "bytes32"},
			{"indexed": false, "name": "assets", "type": "bytes32[]"},
			{"indexed": false, "name": "balances", "type": "int256[]"}
		]
	},
	{
		"anonymous": false,
		"name": "LogAssetPrice",
		"type": "event",
		"inputs": [
			{"indexed": true, "name": "sequenceNumber", "type": "uint256"},
			{"indexed": false, "name": "asset", "type": "bytes32"},
			{"indexed": false, "name": "price", "type": "uint256"}
		]
	}
]`

func parseStateUpdatesABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(stateUpdatesABI))
}
