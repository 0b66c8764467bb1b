package config

import (
	"fmt"
	"sort"
)

// networks holds the vars of the known deployments
var networks = map[string]string{
	"gammax-goerli": `
ChainID = 5
TradingMode = "perpetual"
ContractAddress = "0x6E5de338D71af33B57831C5552775f54394d181B"
EarliestBlock = 6934760
SafeBlockDistance = 40
`,
}

// NetworkVars returns the vars of a known network, to be merged before the
// user provided files
func NetworkVars(name string) (string, error) {
	vars, ok := networks[name]
	if !ok {
		return "", fmt.Errorf("unknown network %q, available: %v", name, Networks())
	}
	return vars, nil
}

// Networks returns the names of the known networks
func Networks() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
