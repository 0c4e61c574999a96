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

package v1alpha1

const labelPrefix = APIGroup + "/"

const (
	// ClusterNameLabelKey is set on every member pod to the owning ZooKeeperCluster name.
	// It is also the anti-affinity selector key.
	ClusterNameLabelKey = labelPrefix + "cluster-name"

	AppNameLabelKey      = "app.kubernetes.io/name"
	AppManagedByLabelKey = "app.kubernetes.io/managed-by"

	AppNameLabelValue      = "zookeeper"
	AppManagedByLabelValue = "zookeeper-controller"
)

// MemberSelectorLabels returns the labels shared by all members of one cluster.
func MemberSelectorLabels(clusterName string) map[string]string {
	return map[string]string{
		ClusterNameLabelKey: clusterName,
	}
}

// MemberLabels returns the full label set of a member pod.
func MemberLabels(clusterName string) map[string]string {
	return map[string]string{
		ClusterNameLabelKey:  clusterName,
		AppNameLabelKey:      AppNameLabelValue,
		AppManagedByLabelKey: AppManagedByLabelValue,
	}
}
