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

package indexes

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/pipern/zookeeper-operator/api/objutilv1"
	"github.com/pipern/zookeeper-operator/api/v1alpha1"
)

// IndexFieldPodByZooKeeperClusterOwner is used to quickly list the member
// pods controlled by a specific ZooKeeperCluster.
//
// NOTE: this is not a JSONPath; it must match the field name used with:
// - mgr.GetFieldIndexer().IndexField(...)
// - client.MatchingFields{...}
// - fake.ClientBuilder.WithIndex(...)
const IndexFieldPodByZooKeeperClusterOwner = "metadata.ownerReferences.zookeeperCluster"

// PodByZooKeeperClusterOwner extracts the indexed value from a Pod.
func PodByZooKeeperClusterOwner(obj client.Object) []string {
	pod, ok := obj.(*corev1.Pod)
	if !ok {
		return nil
	}
	name, ok := objutilv1.ControllerName(pod, v1alpha1.ZooKeeperClusterGVK)
	if !ok || name == "" {
		return nil
	}
	return []string{name}
}

// RegisterPodByZooKeeperClusterOwner registers the index for listing
// Pod objects by their controlling ZooKeeperCluster.
func RegisterPodByZooKeeperClusterOwner(mgr manager.Manager) error {
	if err := mgr.GetFieldIndexer().IndexField(
		context.Background(),
		&corev1.Pod{},
		IndexFieldPodByZooKeeperClusterOwner,
		PodByZooKeeperClusterOwner,
	); err != nil {
		return fmt.Errorf("index Pod by ZooKeeperCluster owner: %w", err)
	}
	return nil
}
