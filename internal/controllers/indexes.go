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
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/pipern/zookeeper-operator/internal/indexes"
)

// RegisterIndexes registers controller-runtime cache indexes used by controllers.
// It must be invoked before any controller starts listing with MatchingFields.
func RegisterIndexes(mgr manager.Manager) error {
	// Pod
	if err := indexes.RegisterPodByZooKeeperClusterOwner(mgr); err != nil {
		return err
	}

	return nil
}
