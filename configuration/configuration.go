package configuration

import (
	"fmt"
	"strings"

	"github.com/fulldump/hyperpool/objectpool"
	"github.com/fulldump/hyperpool/utils"
)

type Configuration struct {
	HttpAddr      string `usage:"inspector HTTP address, empty disables the inspector"`
	BlockSize     int    `usage:"slots per container storage block"`
	LeakPolicy    string `usage:"what to do with objects alive at shutdown [log|panic]"`
	EnableMetrics bool   `usage:"serve prometheus metrics on /metrics"`
	Workers       int    `usage:"synthetic workload goroutines, 0 disables the workload"`
	Objects       int    `usage:"objects kept alive by each worker"`
	Churn         int    `usage:"milliseconds between workload iterations"`
	Version       bool   `usage:"show version and exit"`
	ShowBanner    bool   `usage:"show big banner"`
	ShowConfig    bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:      ":8080",
		BlockSize:     objectpool.DefaultBlockSize,
		LeakPolicy:    string(objectpool.LeakLog),
		EnableMetrics: true,
		Workers:       4,
		Objects:       256,
		Churn:         10,
		ShowBanner:    true,
	}
}

var leakPolicies = map[string]objectpool.LeakPolicy{
	string(objectpool.LeakLog):   objectpool.LeakLog,
	string(objectpool.LeakPanic): objectpool.LeakPanic,
}

// GetLeakPolicy parses the configured policy, case insensitive.
func (c *Configuration) GetLeakPolicy() (objectpool.LeakPolicy, error) {
	p, exists := leakPolicies[strings.ToLower(c.LeakPolicy)]
	if !exists {
		return "", fmt.Errorf("bad leak policy '%s', must be [%s]", c.LeakPolicy, strings.Join(utils.GetKeys(leakPolicies), "|"))
	}
	return p, nil
}

func (c *Configuration) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	if c.Workers < 0 || c.Objects < 0 || c.Churn < 0 {
		return fmt.Errorf("workers, objects and churn can not be negative")
	}
	_, err := c.GetLeakPolicy()
	return err
}
