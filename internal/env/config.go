/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pipern/zookeeper-operator/api/v1alpha1"
)

const (
	PodNamespaceEnvVar             = "POD_NAMESPACE"
	WatchNamespaceEnvVar           = "WATCH_NAMESPACE"
	HealthProbeBindAddressEnvVar   = "HEALTH_PROBE_BIND_ADDRESS"
	MetricsPortEnvVar              = "METRICS_BIND_ADDRESS"
	EnabledControllersEnvVar       = "ENABLED_CONTROLLERS"
	ZooKeeperImageRepositoryEnvVar = "ZOOKEEPER_IMAGE_REPOSITORY"
	ReconcileTimeoutEnvVar         = "RECONCILE_TIMEOUT"
	LeaderElectionEnvVar           = "LEADER_ELECTION"

	DefaultHealthProbeBindAddress = ":4271"
	DefaultMetricsBindAddress     = ":4272"
	DefaultReconcileTimeout       = 2 * time.Minute
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	podNamespace             string
	watchNamespace           string
	healthProbeBindAddress   string
	metricsBindAddress       string
	enabledControllers       map[string]struct{} // nil means all enabled
	zookeeperImageRepository string
	reconcileTimeout         time.Duration
	leaderElection           bool
}

func (c *Config) HealthProbeBindAddress() string {
	return c.healthProbeBindAddress
}

func (c *Config) MetricsBindAddress() string {
	return c.metricsBindAddress
}

func (c *Config) PodNamespace() string {
	return c.podNamespace
}

// WatchNamespace is the only namespace the cache observes. Empty means all.
func (c *Config) WatchNamespace() string {
	return c.watchNamespace
}

func (c *Config) ZooKeeperImageRepository() string {
	return c.zookeeperImageRepository
}

func (c *Config) ReconcileTimeout() time.Duration {
	return c.reconcileTimeout
}

func (c *Config) LeaderElection() bool {
	return c.leaderElection
}

// IsControllerEnabled reports whether the named controller should be started.
// When ENABLED_CONTROLLERS is not set (or empty), all controllers are enabled.
// When set, only the listed controllers (comma-separated) are enabled.
func (c *Config) IsControllerEnabled(name string) bool {
	if c.enabledControllers == nil {
		return true
	}
	_, ok := c.enabledControllers[name]
	return ok
}

type ConfigProvider interface {
	PodNamespace() string
	WatchNamespace() string
	HealthProbeBindAddress() string
	MetricsBindAddress() string
	ZooKeeperImageRepository() string
	ReconcileTimeout() time.Duration
	LeaderElection() bool
	IsControllerEnabled(name string) bool
}

var _ ConfigProvider = &Config{}

// GetConfig reads the configuration from the process environment.
func GetConfig() (*Config, error) {
	return getConfig(os.Getenv)
}

func getConfig(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	cfg.leaderElection = true
	if raw := strings.TrimSpace(getenv(LeaderElectionEnvVar)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, LeaderElectionEnvVar, raw, err)
		}
		cfg.leaderElection = v
	}

	// Pod namespace is where the leader election lease lives.
	cfg.podNamespace = getenv(PodNamespaceEnvVar)
	if cfg.podNamespace == "" && cfg.leaderElection {
		return nil, fmt.Errorf("%w: %s is required when leader election is enabled", ErrInvalidConfig, PodNamespaceEnvVar)
	}

	cfg.watchNamespace = strings.TrimSpace(getenv(WatchNamespaceEnvVar))

	cfg.healthProbeBindAddress = getenv(HealthProbeBindAddressEnvVar)
	if cfg.healthProbeBindAddress == "" {
		cfg.healthProbeBindAddress = DefaultHealthProbeBindAddress
	}

	cfg.metricsBindAddress = getenv(MetricsPortEnvVar)
	if cfg.metricsBindAddress == "" {
		cfg.metricsBindAddress = DefaultMetricsBindAddress
	}

	cfg.zookeeperImageRepository = strings.TrimSpace(getenv(ZooKeeperImageRepositoryEnvVar))
	if cfg.zookeeperImageRepository == "" {
		cfg.zookeeperImageRepository = v1alpha1.DefaultImageRepository
	}
	if strings.Contains(cfg.zookeeperImageRepository, "@") {
		return nil, fmt.Errorf("%w: %s must not carry a digest", ErrInvalidConfig, ZooKeeperImageRepositoryEnvVar)
	}

	cfg.reconcileTimeout = DefaultReconcileTimeout
	if raw := strings.TrimSpace(getenv(ReconcileTimeoutEnvVar)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, ReconcileTimeoutEnvVar, raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, ReconcileTimeoutEnvVar, d)
		}
		cfg.reconcileTimeout = d
	}

	if raw := getenv(EnabledControllersEnvVar); raw != "" {
		cfg.enabledControllers = make(map[string]struct{})
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.enabledControllers[name] = struct{}{}
			}
		}
	}

	return cfg, nil
}
