// Package assets holds the keys identifying an asset on the exchange. Perpetual
// deployments identify assets by a short textual id, spot deployments by a
// 256-bit asset hash.
package assets

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// TradingModePerpetual keys assets by ID
	TradingModePerpetual = "perpetual"
	// TradingModeSpot keys assets by Hash
	TradingModeSpot = "spot"
)

var (
	ErrInvalidAssetID   = errors.New("invalid asset id")
	ErrInvalidAssetHash = errors.New("invalid asset hash")

	hashRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// Key is implemented by every asset identifier the history tables can be keyed by
type Key interface {
	ID | Hash
	String() string
}

// ID identifies a perpetual asset, e.g. "ETH-9"
type ID string

func (id ID) String() string {
	return string(id)
}

// Hash identifies a spot asset
type Hash common.Hash

func (h Hash) String() string {
	return common.Hash(h).Hex()
}

// ParseID validates an asset id. Ids are printable and at most 32 bytes long,
// the size of the word they are encoded in on chain.
func ParseID(s string) (ID, error) {
	if s == "" || len(s) > common.HashLength || strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetID, s)
	}
	return ID(s), nil
}

// ParseHash validates a 0x prefixed 32 byte hex string
func ParseHash(s string) (Hash, error) {
	if !hashRegexp.MatchString(s) {
		return Hash{}, fmt.Errorf("%w: %q", ErrInvalidAssetHash, s)
	}
	return Hash(common.HexToHash(s)), nil
}

// Parse converts the stored representation of an asset back into K
func Parse[K Key](s string) (K, error) {
	var k K
	switch any(k).(type) {
	case ID:
		id, err := ParseID(s)
		if err != nil {
			return k, err
		}
		return any(id).(K), nil
	case Hash:
		h, err := ParseHash(s)
		if err != nil {
			return k, err
		}
		return any(h).(K), nil
	}
	return k, fmt.Errorf("unsupported asset key type %T", k)
}

// DecodeWord converts the 32 byte word emitted on chain into the stored
// representation of an asset for the given trading mode
func DecodeWord(tradingMode string, word [32]byte) (string, error) {
	switch tradingMode {
	case TradingModePerpetual:
		id, err := ParseID(strings.TrimRight(string(word[:]), "\x00"))
		if err != nil {
			return "", err
		}
		return id.String(), nil
	case TradingModeSpot:
		return Hash(word).String(), nil
	default:
		return "", fmt.Errorf("unknown trading mode %q", tradingMode)
	}
}
