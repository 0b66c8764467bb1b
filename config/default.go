package config

// This values doesnt have a default value because depend on the
// environment / deployment
const DefaultMandatoryVars = `
# L1URL is the json rpc endpoint of the chain the exchange settles on
L1URL = "http://localhost:8545"
# ChainID of L1, checked against the node. 0 skips the check
ChainID = 0
# TradingMode is perpetual or spot
TradingMode = "perpetual"
# ContractAddress is the address of the exchange contract emitting the state updates
ContractAddress = "0x0000000000000000000000000000000000000000"
# EarliestBlock is the block the exchange contract was deployed at
EarliestBlock = 0
`

// This doesn't belong to config, but are the vars used
// to avoid repetition in config-files
const DefaultVars = `
PathRWData = "/tmp/explorer"
SafeBlockDistance = 40
`

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Common]
L1URL = "{{L1URL}}"
ChainID = {{ChainID}}
TradingMode = "{{TradingMode}}"

[DB]
Path = "{{PathRWData}}/explorer.sqlite"

[KVStore]
Backend = "sqlite"
RedisURL = ""
RedisPassword = ""
KeyPrefix = "explorer:"

[Sync]
EarliestBlock = {{EarliestBlock}}
MaxBlockNumber = 0
SyncBatchSize = 6000
RetryAfterErrorPeriod = "1s"

[BlockDownloader]
PollInterval = "2s"
SafeBlockDistance = {{SafeBlockDistance}}
MaxReorgDepth = 1000

[StateSync]
ContractAddress = "{{ContractAddress}}"
BlockChunkSize = 1000

[Metrics]
Enabled = true
Host = "0.0.0.0"
Port = 9091
`
