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

import "time"

// ControllerFinalizer blocks ZooKeeperCluster removal until the controller has
// released the ensemble.
const ControllerFinalizer = APIGroup + "/controller"

// FieldManager is the server-side apply identity of the controller.
const FieldManager = APIGroup

const (
	// DefaultImageRepository is combined with spec.version to build the member image.
	DefaultImageRepository = "stackable/zookeeper"

	// ContainerName is the name of the single container of every member pod.
	ContainerName = "zookeeper"
)

const (
	// RequeueAfterSuccess is a slow-poll safety net against missed watch events.
	RequeueAfterSuccess = 1800 * time.Second

	// RequeueAfterError is the fixed backoff applied to every failed reconcile.
	RequeueAfterError = 360 * time.Second
)

// Scheduling constants applied to every member pod.
const (
	ArchitectureTolerationKey   = "kubernetes.io/arch"
	ArchitectureTolerationValue = "stackable-linux"
	NetworkUnavailableTaintKey  = "node.kubernetes.io/network-unavailable"
	AntiAffinityTopologyKey     = "kubernetes.io/hostname"
)

// ZooKeeperClusterKind is the kind of the custom resource.
const ZooKeeperClusterKind = "ZooKeeperCluster"

// ZooKeeperClusterGVK is used for owner references, since typed objects read
// through a client carry no TypeMeta.
var ZooKeeperClusterGVK = SchemeGroupVersion.WithKind(ZooKeeperClusterKind)
