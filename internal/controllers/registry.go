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

package controllers

import (
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/manager"

	zkccontroller "github.com/pipern/zookeeper-operator/internal/controllers/zkc_controller"
	"github.com/pipern/zookeeper-operator/internal/state"
)

type Config interface {
	ZooKeeperImageRepository() string
	ReconcileTimeout() time.Duration
	IsControllerEnabled(name string) bool
}

// BuildAll builds every enabled controller.
func BuildAll(mgr manager.Manager, store *state.Store, cfg Config) error {
	// Must be first: controllers rely on MatchingFields against these indexes.
	if err := RegisterIndexes(mgr); err != nil {
		return fmt.Errorf("building indexes: %w", err)
	}

	builders := map[string]func(mgr manager.Manager) error{
		zkccontroller.ControllerName: func(mgr manager.Manager) error {
			return zkccontroller.BuildController(mgr, store, zkccontroller.Options{
				ImageRepository:  cfg.ZooKeeperImageRepository(),
				ReconcileTimeout: cfg.ReconcileTimeout(),
			})
		},
	}

	for name, buildCtl := range builders {
		if !cfg.IsControllerEnabled(name) {
			mgr.GetLogger().Info("controller disabled", "controller", name)
			continue
		}
		if err := buildCtl(mgr); err != nil {
			return fmt.Errorf("building controller %s: %w", name, err)
		}
	}

	return nil
}
