package common

import (
	"fmt"

	"github.com/perpx/explorer/assets"
)

type Config struct {
	// L1URL is the json rpc endpoint of the chain the exchange settles on
	L1URL string `mapstructure:"L1URL"`
	// ChainID is checked against the node on start up. 0 skips the check
	ChainID uint64 `mapstructure:"ChainID"`
	// TradingMode is perpetual (assets keyed by id) or spot (assets keyed by hash)
	TradingMode string `mapstructure:"TradingMode" jsonschema:"enum=perpetual,enum=spot"`
}

func (c Config) Validate() error {
	switch c.TradingMode {
	case assets.TradingModePerpetual, assets.TradingModeSpot:
	default:
		return fmt.Errorf("unknown trading mode %q", c.TradingMode)
	}
	if c.L1URL == "" {
		return fmt.Errorf("L1URL is empty")
	}
	return nil
}
