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
	"fmt"
	"slices"
)

// +kubebuilder:validation:Enum="3.6.2";"3.5.8"
type ZooKeeperVersion string

const (
	ZooKeeperVersion362 ZooKeeperVersion = "3.6.2"
	ZooKeeperVersion358 ZooKeeperVersion = "3.5.8"
)

// SupportedZooKeeperVersions returns the versions the controller knows how to run.
func SupportedZooKeeperVersions() []ZooKeeperVersion {
	return []ZooKeeperVersion{
		ZooKeeperVersion362,
		ZooKeeperVersion358,
	}
}

func (v ZooKeeperVersion) Validate() error {
	if !slices.Contains(SupportedZooKeeperVersions(), v) {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, string(v))
	}
	return nil
}

func (v ZooKeeperVersion) String() string {
	return string(v)
}

// PodName builds the ensemble member name "{clusterName}-{idx}".
func PodName(clusterName string, idx int32) string {
	return fmt.Sprintf("%s-%d", clusterName, idx)
}
