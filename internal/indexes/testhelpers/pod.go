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

// Package testhelpers provides utilities for registering indexes with fake clients in tests.
package testhelpers

import (
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/pipern/zookeeper-operator/internal/indexes"
)

// WithPodByZooKeeperClusterOwnerIndex registers the IndexFieldPodByZooKeeperClusterOwner
// index on a fake.ClientBuilder.
func WithPodByZooKeeperClusterOwnerIndex(b *fake.ClientBuilder) *fake.ClientBuilder {
	return b.WithIndex(&corev1.Pod{}, indexes.IndexFieldPodByZooKeeperClusterOwner, indexes.PodByZooKeeperClusterOwner)
}
