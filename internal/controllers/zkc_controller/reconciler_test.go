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
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	clocktesting "k8s.io/utils/clock/testing"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/pipern/zookeeper-operator/api/objutilv1"
	"github.com/pipern/zookeeper-operator/api/v1alpha1"
	"github.com/pipern/zookeeper-operator/internal/indexes/testhelpers"
	"github.com/pipern/zookeeper-operator/internal/state"
)

var _ = Describe("Reconciler", func() {
	var (
		scheme        *runtime.Scheme
		clientBuilder *fake.ClientBuilder
		recorder      *apiRecorder
		store         *state.Store
		clk           *clocktesting.FakePassiveClock
		opts          Options
	)
	var (
		cl  client.WithWatch
		rec *Reconciler
	)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		scheme = newScheme()
		recorder = &apiRecorder{}
		clk = clocktesting.NewFakePassiveClock(t0)
		store = state.NewStore(clk)
		opts = Options{Clock: clk}
		clientBuilder = testhelpers.WithPodByZooKeeperClusterOwnerIndex(
			fake.NewClientBuilder().
				WithScheme(scheme).
				WithStatusSubresource(&v1alpha1.ZooKeeperCluster{}),
		)
		cl = nil
		rec = nil
	})

	JustBeforeEach(func() {
		cl = clientBuilder.WithInterceptorFuncs(recorder.funcs()).Build()
		rec = NewReconciler(cl, store, opts)
	})

	getCluster := func(ctx context.Context, obj client.Object) *v1alpha1.ZooKeeperCluster {
		zkc := &v1alpha1.ZooKeeperCluster{}
		Expect(cl.Get(ctx, client.ObjectKeyFromObject(obj), zkc)).To(Succeed())
		return zkc
	}

	listPods := func(ctx context.Context) []corev1.Pod {
		var pods corev1.PodList
		Expect(cl.List(ctx, &pods)).To(Succeed())
		return pods.Items
	}

	podNames := func(pods []corev1.Pod) []string {
		names := make([]string, 0, len(pods))
		for i := range pods {
			names = append(names, pods[i].Name)
		}
		return names
	}

	When("the cluster does not exist", func() {
		It("finishes without requeue and still marks the event", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: "zk-system", Name: "gone"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{}))

			Expect(store.Snapshot().LastEvent).To(Equal(t0))
			Expect(store.Snapshot().HandledEvents).To(BeZero())
			Expect(recorder.applied).To(BeEmpty())
		})
	})

	When("reading the cluster fails", func() {
		BeforeEach(func() {
			clientBuilder = clientBuilder.WithObjects(newCluster("zk", v1alpha1.ZooKeeperVersion362, 1))
			recorder.failGet = func(context.Context, client.ObjectKey) error {
				return errors.New("apiserver unavailable")
			}
		})

		It("requeues after the error interval", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: "zk-system", Name: "zk"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))
			Expect(recorder.clusterPatches).To(BeZero())
		})
	})

	When("a new cluster is created", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion362, 3)
			clientBuilder = clientBuilder.WithObjects(zkc)
		})

		It("adds the finalizer, applies all pods and reports a good status", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 1800 * time.Second}))

			got := getCluster(ctx, zkc)
			Expect(got.Finalizers).To(Equal([]string{v1alpha1.ControllerFinalizer}))
			Expect(got.Status.IsBad).To(HaveValue(BeFalse()))
			Expect(got.Status.Replicas).To(Equal(int32(3)))
			Expect(got.Status.ObservedGeneration).To(Equal(got.Generation))

			ready := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ZooKeeperClusterCondReadyType)
			Expect(ready).NotTo(BeNil())
			Expect(ready.Status).To(Equal(metav1.ConditionTrue))
			Expect(ready.Reason).To(Equal(v1alpha1.ZooKeeperClusterCondReadyReasonProvisioned))
			Expect(ready.LastTransitionTime.Time).To(BeTemporally("==", t0))

			Expect(recorder.applied).To(Equal([]string{"zk-0", "zk-1", "zk-2"}))
			Expect(recorder.applyOwners).To(HaveLen(3))
			Expect(recorder.applyOwners).To(HaveEach(v1alpha1.FieldManager))
			Expect(recorder.applyForced).To(HaveEach(BeTrue()))
			Expect(recorder.clusterPatches).To(Equal(1))
			Expect(recorder.statusPatches).To(Equal(1))

			Expect(recorder.statusBodies).To(HaveLen(1))
			var body struct {
				Status map[string]any `json:"status"`
			}
			Expect(json.Unmarshal([]byte(recorder.statusBodies[0]), &body)).To(Succeed())
			Expect(body.Status).To(HaveKeyWithValue("isBad", false))
			Expect(body.Status).To(HaveKeyWithValue("replicas", BeNumerically("==", 3)))

			pods := listPods(ctx)
			Expect(podNames(pods)).To(ConsistOf("zk-0", "zk-1", "zk-2"))
			for i := range pods {
				Expect(objutilv1.HasControllerRef(&pods[i], got)).To(BeTrue())
				Expect(pods[i].Spec.Containers).To(HaveLen(1))
				Expect(pods[i].Spec.Containers[0].Image).To(Equal("stackable/zookeeper:3.6.2"))
			}

			Expect(store.Snapshot()).To(Equal(state.Snapshot{LastEvent: t0, HandledEvents: 1}))
		})

		It("is idempotent when replayed", func(ctx SpecContext) {
			_, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			first := listPods(ctx)
			firstStatus := getCluster(ctx, zkc).Status
			Expect(recorder.podWrites).To(Equal(3))

			clk.SetTime(t0.Add(time.Hour))

			for range 3 {
				res, err := rec.Reconcile(ctx, RequestFor(zkc))
				Expect(err).NotTo(HaveOccurred())
				Expect(res).To(Equal(reconcile.Result{RequeueAfter: 1800 * time.Second}))
			}

			got := getCluster(ctx, zkc)
			Expect(got.Finalizers).To(Equal([]string{v1alpha1.ControllerFinalizer}))
			Expect(got.Status).To(Equal(firstStatus))

			// finalizer and status are written once, apply runs on every pass
			Expect(recorder.clusterPatches).To(Equal(1))
			Expect(recorder.statusPatches).To(Equal(1))
			Expect(recorder.applied).To(HaveLen(12))

			byName := map[string]corev1.Pod{}
			for _, pod := range first {
				byName[pod.Name] = pod
			}
			again := listPods(ctx)
			Expect(again).To(HaveLen(len(first)))
			for _, pod := range again {
				Expect(byName).To(HaveKey(pod.Name))
				Expect(pod.Labels).To(Equal(byName[pod.Name].Labels))
				Expect(pod.OwnerReferences).To(Equal(byName[pod.Name].OwnerReferences))
				Expect(pod.Spec).To(Equal(byName[pod.Name].Spec))
				Expect(pod.ResourceVersion).To(Equal(byName[pod.Name].ResourceVersion))
				Expect(pod.ManagedFields).To(Equal(byName[pod.Name].ManagedFields))
			}

			// replayed applies carry the same fields and write nothing
			Expect(recorder.podWrites).To(Equal(3))
			Expect(recorder.applyOwners).To(HaveEach(v1alpha1.FieldManager))
			Expect(recorder.applyForced).To(HaveEach(BeTrue()))

			Expect(store.Snapshot()).To(Equal(state.Snapshot{LastEvent: t0.Add(time.Hour), HandledEvents: 4}))
		})

		It("uses the configured image repository", func(ctx SpecContext) {
			rec = NewReconciler(cl, store, Options{Clock: clk, ImageRepository: "registry.example.com/zookeeper"})

			_, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())

			for _, pod := range listPods(ctx) {
				Expect(pod.Spec.Containers[0].Image).To(Equal("registry.example.com/zookeeper:3.6.2"))
			}
		})
	})

	When("another writer changes the cluster while the finalizer is being added", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion358, 1)
			clientBuilder = clientBuilder.WithObjects(zkc)
			conflicted := false
			recorder.failClusterPatch = func() error {
				if conflicted {
					return nil
				}
				conflicted = true

				current := &v1alpha1.ZooKeeperCluster{}
				Expect(cl.Get(context.Background(), client.ObjectKeyFromObject(zkc), current)).To(Succeed())
				current.Labels = map[string]string{"team": "storage"}
				Expect(cl.Update(context.Background(), current)).To(Succeed())

				return kerrors.NewConflict(schema.GroupResource{Group: v1alpha1.APIGroup, Resource: "zookeeperclusters"}, "zk", errors.New("modified"))
			}
		})

		It("re-reads, retries and adds the finalizer exactly once", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 1800 * time.Second}))

			Expect(recorder.clusterPatches).To(Equal(2))
			got := getCluster(ctx, zkc)
			Expect(got.Finalizers).To(Equal([]string{v1alpha1.ControllerFinalizer}))
			Expect(got.Labels).To(HaveKeyWithValue("team", "storage"))
		})
	})

	When("another controller holds a finalizer too", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion362, 1)
			zkc.Finalizers = []string{"example.com/other"}
			clientBuilder = clientBuilder.WithObjects(zkc)
		})

		It("appends its own finalizer and keeps the foreign one", func(ctx SpecContext) {
			_, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())

			Expect(getCluster(ctx, zkc).Finalizers).To(Equal([]string{"example.com/other", v1alpha1.ControllerFinalizer}))
		})
	})

	When("applying the second pod fails", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion362, 3)
			zkc.Finalizers = []string{v1alpha1.ControllerFinalizer}
			clientBuilder = clientBuilder.WithObjects(zkc)
			recorder.failApply = func(podName string) error {
				if podName == "zk-1" {
					return kerrors.NewServiceUnavailable("apply rejected")
				}
				return nil
			}
		})

		It("stops at the failed pod, reports a bad status and requeues after the error interval", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))

			Expect(recorder.applied).To(Equal([]string{"zk-0", "zk-1"}))
			Expect(podNames(listPods(ctx))).To(ConsistOf("zk-0"))

			got := getCluster(ctx, zkc)
			Expect(got.Status.IsBad).To(HaveValue(BeTrue()))
			ready := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ZooKeeperClusterCondReadyType)
			Expect(ready).NotTo(BeNil())
			Expect(ready.Status).To(Equal(metav1.ConditionFalse))
			Expect(ready.Reason).To(Equal(v1alpha1.ZooKeeperClusterCondReadyReasonApplyFailed))
			Expect(ready.Message).To(ContainSubstring("zk-1"))

			Expect(store.Snapshot().HandledEvents).To(BeZero())
		})

		It("converges once the failure clears", func(ctx SpecContext) {
			_, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())

			recorder.failApply = nil
			clk.SetTime(t0.Add(6 * time.Minute))

			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 1800 * time.Second}))

			Expect(podNames(listPods(ctx))).To(ConsistOf("zk-0", "zk-1", "zk-2"))

			got := getCluster(ctx, zkc)
			Expect(got.Status.IsBad).To(HaveValue(BeFalse()))
			Expect(got.Status.Replicas).To(Equal(int32(3)))
			ready := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ZooKeeperClusterCondReadyType)
			Expect(ready.Status).To(Equal(metav1.ConditionTrue))
			Expect(ready.LastTransitionTime.Time).To(BeTemporally("==", t0.Add(6*time.Minute)))

			Expect(store.Snapshot().HandledEvents).To(Equal(uint64(1)))
		})

		It("still requeues after the error interval when the status write fails too", func(ctx SpecContext) {
			recorder.failStatusPatch = func() error { return errors.New("status write failed") }

			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))
			Expect(getCluster(ctx, zkc).Status.IsBad).To(BeNil())
		})
	})

	When("the spec is invalid", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion("4.0.0"), 3)
			zkc.Finalizers = []string{v1alpha1.ControllerFinalizer}
			clientBuilder = clientBuilder.WithObjects(zkc)
		})

		It("applies nothing and reports InvalidSpec", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))

			Expect(recorder.applied).To(BeEmpty())
			got := getCluster(ctx, zkc)
			Expect(got.Status.IsBad).To(HaveValue(BeTrue()))
			ready := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ZooKeeperClusterCondReadyType)
			Expect(ready).NotTo(BeNil())
			Expect(ready.Reason).To(Equal(v1alpha1.ZooKeeperClusterCondReadyReasonInvalidSpec))
		})
	})

	When("the status write fails after a successful apply", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion362, 2)
			zkc.Finalizers = []string{v1alpha1.ControllerFinalizer}
			clientBuilder = clientBuilder.WithObjects(zkc)
			recorder.failStatusPatch = func() error { return errors.New("status write failed") }
		})

		It("treats it as a reconcile failure", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))
			Expect(recorder.applied).To(Equal([]string{"zk-0", "zk-1"}))
			Expect(store.Snapshot().HandledEvents).To(BeZero())
		})
	})

	When("the reconcile deadline expires", func() {
		var zkc *v1alpha1.ZooKeeperCluster

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion362, 1)
			clientBuilder = clientBuilder.WithObjects(zkc)
			opts.ReconcileTimeout = 10 * time.Millisecond
			recorder.failGet = func(ctx context.Context, _ client.ObjectKey) error {
				<-ctx.Done()
				return ctx.Err()
			}
		})

		It("retries after the error interval", func(ctx SpecContext) {
			res, err := rec.Reconcile(ctx, RequestFor(zkc))
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))
		})
	})

	When("the cluster is being deleted", func() {
		var (
			zkc      *v1alpha1.ZooKeeperCluster
			foreign  *corev1.Pod
			ownedPod func(name string) *corev1.Pod
		)

		BeforeEach(func() {
			zkc = newCluster("zk", v1alpha1.ZooKeeperVersion362, 2)
			zkc.Finalizers = []string{v1alpha1.ControllerFinalizer}
			zkc.DeletionTimestamp = ptr.To(metav1.NewTime(t0))

			ownedPod = func(name string) *corev1.Pod {
				ref, err := objutilv1.ControllerRef(zkc, v1alpha1.ZooKeeperClusterGVK)
				Expect(err).NotTo(HaveOccurred())
				return &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
					Name:            name,
					Namespace:       zkc.Namespace,
					Labels:          v1alpha1.MemberLabels(zkc.Name),
					OwnerReferences: []metav1.OwnerReference{ref},
				}}
			}

			other := newCluster("other", v1alpha1.ZooKeeperVersion362, 1)
			ref, err := objutilv1.ControllerRef(other, v1alpha1.ZooKeeperClusterGVK)
			Expect(err).NotTo(HaveOccurred())
			foreign = &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
				Name:            "other-0",
				Namespace:       zkc.Namespace,
				OwnerReferences: []metav1.OwnerReference{ref},
			}}
		})

		When("the finalizer is present", func() {
			BeforeEach(func() {
				clientBuilder = clientBuilder.WithObjects(zkc, ownedPod("zk-0"), ownedPod("zk-1"), foreign)
			})

			It("deletes the member pods, removes the finalizer and does not requeue", func(ctx SpecContext) {
				res, err := rec.Reconcile(ctx, RequestFor(zkc))
				Expect(err).NotTo(HaveOccurred())
				Expect(res).To(Equal(reconcile.Result{}))

				Expect(recorder.applied).To(BeEmpty())
				Expect(recorder.statusPatches).To(BeZero())
				Expect(recorder.podDeletes).To(ConsistOf("zk-0", "zk-1"))
				Expect(podNames(listPods(ctx))).To(ConsistOf("other-0"))

				err = cl.Get(ctx, client.ObjectKeyFromObject(zkc), &v1alpha1.ZooKeeperCluster{})
				Expect(kerrors.IsNotFound(err)).To(BeTrue())

				Expect(store.Snapshot().HandledEvents).To(BeZero())
			})

			It("keeps the finalizer when cleanup fails", func(ctx SpecContext) {
				recorder.failDelete = func(string) error { return errors.New("delete refused") }

				res, err := rec.Reconcile(ctx, RequestFor(zkc))
				Expect(err).NotTo(HaveOccurred())
				Expect(res).To(Equal(reconcile.Result{RequeueAfter: 360 * time.Second}))

				Expect(recorder.clusterPatches).To(BeZero())
				Expect(getCluster(ctx, zkc).Finalizers).To(ContainElement(v1alpha1.ControllerFinalizer))
			})
		})

		When("a foreign finalizer remains", func() {
			BeforeEach(func() {
				zkc.Finalizers = []string{"example.com/other", v1alpha1.ControllerFinalizer}
				clientBuilder = clientBuilder.WithObjects(zkc, ownedPod("zk-0"))
			})

			It("removes only its own finalizer", func(ctx SpecContext) {
				res, err := rec.Reconcile(ctx, RequestFor(zkc))
				Expect(err).NotTo(HaveOccurred())
				Expect(res).To(Equal(reconcile.Result{}))

				Expect(getCluster(ctx, zkc).Finalizers).To(Equal([]string{"example.com/other"}))
				Expect(listPods(ctx)).To(BeEmpty())
			})
		})

		When("the finalizer is already gone", func() {
			BeforeEach(func() {
				zkc.Finalizers = []string{"example.com/other"}
				clientBuilder = clientBuilder.WithObjects(zkc, ownedPod("zk-0"))
			})

			It("does no writes and does not requeue", func(ctx SpecContext) {
				res, err := rec.Reconcile(ctx, RequestFor(zkc))
				Expect(err).NotTo(HaveOccurred())
				Expect(res).To(Equal(reconcile.Result{}))

				Expect(recorder.clusterPatches).To(BeZero())
				Expect(recorder.statusPatches).To(BeZero())
				Expect(recorder.podDeletes).To(BeEmpty())
				Expect(recorder.applied).To(BeEmpty())
				Expect(getCluster(ctx, zkc).Finalizers).To(Equal([]string{"example.com/other"}))
			})
		})
	})
})

var _ = Describe("ErrorPolicy", func() {
	DescribeTable("always requeues after the fixed interval",
		func(err error) {
			Expect(ErrorPolicy(err)).To(Equal(reconcile.Result{RequeueAfter: v1alpha1.RequeueAfterError}))
			Expect(ErrorPolicy(err)).To(Equal(ErrorPolicy(err)))
		},
		Entry("transport error", errors.New("connection reset")),
		Entry("conflict", kerrors.NewConflict(schema.GroupResource{Resource: "pods"}, "zk-0", errors.New("modified"))),
		Entry("malformed input", v1alpha1.ErrUnsupportedVersion),
		Entry("deadline", context.DeadlineExceeded),
		Entry("wrapped", errors.Join(errors.New("a"), errors.New("b"))),
	)

	It("requeues after six minutes", func() {
		Expect(v1alpha1.RequeueAfterError).To(Equal(360 * time.Second))
		Expect(v1alpha1.RequeueAfterSuccess).To(Equal(1800 * time.Second))
	})
})
