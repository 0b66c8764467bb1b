package common

import "fmt"

const (
	// SYNC name to identify the block downloader, state sync and scheduler
	SYNC = "sync"
	// PREPROCESSOR name to identify the asset history preprocessing (implies SYNC)
	PREPROCESSOR = "preprocessor"
	// METRICS name to identify the prometheus and status server
	METRICS = "metrics"
)

// AllComponents lists the components in start up order
var AllComponents = []string{SYNC, PREPROCESSOR, METRICS}

// IsNeeded is true when any of casesWhereNeeded is among the requested components
func IsNeeded(casesWhereNeeded, components []string) bool {
	for _, component := range components {
		for _, caseWhereNeeded := range casesWhereNeeded {
			if component == caseWhereNeeded {
				return true
			}
		}
	}
	return false
}

// ValidateComponents rejects unknown component names
func ValidateComponents(components []string) error {
	for _, c := range components {
		if !IsNeeded([]string{c}, AllComponents) {
			return fmt.Errorf("unknown component %q, available: %v", c, AllComponents)
		}
	}
	return nil
}
