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

package zkccontroller

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pipern/zookeeper-operator/api/objutilv1"
	"github.com/pipern/zookeeper-operator/api/v1alpha1"
)

// computeDesiredPods derives the ordered member pod set of a cluster.
//
// It is pure: it reads nothing but its arguments, so equal inputs always
// produce equal (and identically serialized) pods.
func computeDesiredPods(zkc *v1alpha1.ZooKeeperCluster, imageRepository string) ([]*corev1.Pod, error) {
	if zkc.Namespace == "" {
		return nil, fmt.Errorf("%w: .metadata.namespace is empty", v1alpha1.ErrMissingObjectKey)
	}

	ownerRef, err := objutilv1.ControllerRef(zkc, v1alpha1.ZooKeeperClusterGVK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", v1alpha1.ErrMissingObjectKey, err)
	}

	if err := zkc.Spec.Version.Validate(); err != nil {
		return nil, err
	}

	if zkc.Spec.Replicas < 0 {
		return nil, fmt.Errorf("%w: %d", v1alpha1.ErrInvalidReplicas, zkc.Spec.Replicas)
	}

	image := memberImage(imageRepository, zkc.Spec.Version)

	pods := make([]*corev1.Pod, 0, zkc.Spec.Replicas)
	for i := range zkc.Spec.Replicas {
		pods = append(pods, computeDesiredPod(zkc, i, image, ownerRef))
	}
	return pods, nil
}

func computeDesiredPod(
	zkc *v1alpha1.ZooKeeperCluster,
	idx int32,
	image string,
	ownerRef metav1.OwnerReference,
) *corev1.Pod {
	return &corev1.Pod{
		// Apply patches are sent as-is, so the object must be self-describing.
		TypeMeta: metav1.TypeMeta{
			APIVersion: corev1.SchemeGroupVersion.String(),
			Kind:       "Pod",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:            zkc.PodName(idx),
			Namespace:       zkc.Namespace,
			Labels:          v1alpha1.MemberLabels(zkc.Name),
			OwnerReferences: []metav1.OwnerReference{ownerRef},
		},
		Spec: corev1.PodSpec{
			Tolerations: memberTolerations(),
			Containers: []corev1.Container{
				{
					Name:  v1alpha1.ContainerName,
					Image: image,
				},
			},
			Affinity: &corev1.Affinity{
				PodAntiAffinity: &corev1.PodAntiAffinity{
					RequiredDuringSchedulingIgnoredDuringExecution: []corev1.PodAffinityTerm{
						{
							LabelSelector: &metav1.LabelSelector{
								MatchLabels: v1alpha1.MemberSelectorLabels(zkc.Name),
							},
							TopologyKey: v1alpha1.AntiAffinityTopologyKey,
						},
					},
				},
			},
		},
	}
}

func memberImage(imageRepository string, version v1alpha1.ZooKeeperVersion) string {
	if imageRepository == "" {
		imageRepository = v1alpha1.DefaultImageRepository
	}
	return imageRepository + ":" + version.String()
}

func memberTolerations() []corev1.Toleration {
	return []corev1.Toleration{
		{
			Key:      v1alpha1.ArchitectureTolerationKey,
			Operator: corev1.TolerationOpEqual,
			Value:    v1alpha1.ArchitectureTolerationValue,
			Effect:   corev1.TaintEffectNoExecute,
		},
		{
			Key:      v1alpha1.ArchitectureTolerationKey,
			Operator: corev1.TolerationOpEqual,
			Value:    v1alpha1.ArchitectureTolerationValue,
			Effect:   corev1.TaintEffectNoSchedule,
		},
		{
			Key:      v1alpha1.NetworkUnavailableTaintKey,
			Operator: corev1.TolerationOpExists,
			Effect:   corev1.TaintEffectNoSchedule,
		},
	}
}
