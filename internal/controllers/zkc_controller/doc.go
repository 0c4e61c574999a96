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

// Package zkccontroller implements the zookeepercluster-controller, which
// provisions ZooKeeper ensemble member pods for every ZooKeeperCluster.
//
// # Controller Responsibilities
//
// The controller:
//   - Keeps its finalizer on every live ZooKeeperCluster
//   - Server-side applies one member pod per replica index ("{name}-{i}")
//   - Reports the outcome in status (isBad, Ready condition, replicas)
//   - On deletion, removes the member pods and then its finalizer
//
// # Watched Resources
//
// The controller watches:
//   - ZooKeeperCluster: spec, finalizer and deletion changes
//   - Pod: member pods it controls (via owner reference)
//
// # Requeue Policy
//
// A successful pass is re-evaluated after 30 minutes. Every failure, whatever
// its kind, is retried after a fixed 6 minutes. A cluster whose deletion was
// handled is not requeued.
package zkccontroller
