package enums

import (
	"fmt"
	"strings"
)

// ProcessorEnvironment names the processor account tier a credential belongs to.
type ProcessorEnvironment string

const (
	ProcessorEnvSandbox ProcessorEnvironment = "sandbox"
	ProcessorEnvLive    ProcessorEnvironment = "live"
)

func (p ProcessorEnvironment) String() string {
	return string(p)
}

func (p ProcessorEnvironment) IsValid() bool {
	return p == ProcessorEnvSandbox || p == ProcessorEnvLive
}

// ParseProcessorEnvironment accepts sandbox/live plus the production alias.
func ParseProcessorEnvironment(value string) (ProcessorEnvironment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sandbox":
		return ProcessorEnvSandbox, nil
	case "live", "production":
		return ProcessorEnvLive, nil
	}
	return "", fmt.Errorf("invalid processor environment %q", value)
}
