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

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:object:generate=true
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=zk
// +kubebuilder:metadata:labels=module=zookeeper-operator
// +kubebuilder:validation:XValidation:rule="size(self.metadata.name) <= 56",message="metadata.name must be at most 56 characters (to fit derived pod names)"
// +kubebuilder:printcolumn:name="Version",type=string,JSONPath=".spec.version"
// +kubebuilder:printcolumn:name="Replicas",type=integer,JSONPath=".spec.replicas"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
// +kubebuilder:printcolumn:name="Bad",type=boolean,JSONPath=".status.isBad"
type ZooKeeperCluster struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec ZooKeeperClusterSpec `json:"spec"`
	// +patchStrategy=merge
	Status ZooKeeperClusterStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +kubebuilder:object:generate=true
type ZooKeeperClusterSpec struct {
	// +kubebuilder:validation:Required
	Version ZooKeeperVersion `json:"version"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Minimum=0
	Replicas int32 `json:"replicas"`
}

// +kubebuilder:object:generate=true
type ZooKeeperClusterStatus struct {
	// IsBad is true when the last reconcile pass failed to provision the ensemble members.
	// Nil until the first status write.
	// +kubebuilder:default=false
	// +optional
	IsBad *bool `json:"isBad,omitempty"`

	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Replicas is the number of member pods applied by the last successful pass.
	// +optional
	Replicas int32 `json:"replicas,omitempty"`

	// +patchMergeKey=type
	// +patchStrategy=merge
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type" protobuf:"bytes,1,rep,name=conditions"`
}

// +kubebuilder:object:generate=true
// +kubebuilder:object:root=true
type ZooKeeperClusterList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []ZooKeeperCluster `json:"items"`
}

func (zkc *ZooKeeperCluster) GetStatusConditions() []metav1.Condition {
	return zkc.Status.Conditions
}

func (zkc *ZooKeeperCluster) SetStatusConditions(conditions []metav1.Condition) {
	zkc.Status.Conditions = conditions
}

// Bad reports the recorded isBad flag. Unset reads as false.
func (s *ZooKeeperClusterStatus) Bad() bool {
	return s.IsBad != nil && *s.IsBad
}

// IsDeleting reports whether the cluster has been marked for deletion.
func (zkc *ZooKeeperCluster) IsDeleting() bool {
	return zkc.DeletionTimestamp != nil
}

// PodName returns the deterministic name of the ensemble member with the given index.
func (zkc *ZooKeeperCluster) PodName(idx int32) string {
	return PodName(zkc.Name, idx)
}
