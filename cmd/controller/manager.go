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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	crmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics/server"

	u "github.com/deckhouse/sds-common-lib/utils"

	"github.com/pipern/zookeeper-operator/internal/controllers"
	"github.com/pipern/zookeeper-operator/internal/env"
	"github.com/pipern/zookeeper-operator/internal/scheme"
	"github.com/pipern/zookeeper-operator/internal/state"
)

const leaderElectionID = "zookeeper-controller"

func newManager(
	ctx context.Context,
	log *slog.Logger,
	envConfig env.ConfigProvider,
) (manager.Manager, error) {
	config, err := config.GetConfig()
	if err != nil {
		return nil, u.LogError(log, fmt.Errorf("getting rest config: %w", err))
	}

	scheme, err := scheme.New()
	if err != nil {
		return nil, u.LogError(log, fmt.Errorf("building scheme: %w", err))
	}

	var cacheOpt cache.Options
	if ns := envConfig.WatchNamespace(); ns != "" {
		cacheOpt.DefaultNamespaces = map[string]cache.Config{ns: {}}
	}

	store := state.NewStore(nil)
	if err := store.Register(crmetrics.Registry); err != nil {
		return nil, u.LogError(log, fmt.Errorf("registering state metrics: %w", err))
	}

	mgrOpts := manager.Options{
		Scheme:                  scheme,
		BaseContext:             func() context.Context { return ctx },
		Logger:                  logr.FromSlogHandler(log.Handler()),
		HealthProbeBindAddress:  envConfig.HealthProbeBindAddress(),
		LeaderElection:          envConfig.LeaderElection(),
		LeaderElectionNamespace: envConfig.PodNamespace(),
		LeaderElectionID:        leaderElectionID,
		Cache:                   cacheOpt,
		Metrics: server.Options{
			BindAddress: envConfig.MetricsBindAddress(),
			ExtraHandlers: map[string]http.Handler{
				"/state": store.Handler(),
			},
		},
	}

	mgr, err := manager.New(config, mgrOpts)
	if err != nil {
		return nil, u.LogError(log, fmt.Errorf("creating manager: %w", err))
	}

	if err = mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return nil, u.LogError(log, fmt.Errorf("AddHealthzCheck: %w", err))
	}

	if err = mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return nil, u.LogError(log, fmt.Errorf("AddReadyzCheck: %w", err))
	}

	if err := controllers.BuildAll(mgr, store, envConfig); err != nil {
		return nil, u.LogError(log, fmt.Errorf("building controllers: %w", err))
	}

	return mgr, nil
}
