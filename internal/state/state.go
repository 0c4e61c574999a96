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

// Package state holds the controller's in-memory observable state: when the
// last reconcile event arrived and how many events completed successfully.
//
// The store is shared by every reconcile worker. All access goes through a
// single RWMutex which is never held across I/O.
package state

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"
)

const metricsNamespace = "zookeeper_controller"

// Snapshot is a consistent copy of the store.
type Snapshot struct {
	LastEvent     time.Time `json:"lastEvent"`
	HandledEvents uint64    `json:"handledEvents"`
}

type Store struct {
	clock clock.PassiveClock

	mu            sync.RWMutex
	lastEvent     time.Time
	handledEvents uint64

	handledTotal   prometheus.Counter
	lastEventGauge prometheus.Gauge
}

func NewStore(clk clock.PassiveClock) *Store {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Store{
		clock: clk,
		handledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "handled_events_total",
			Help:      "Reconcile events that completed the full pass.",
		}),
		lastEventGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_event_timestamp_seconds",
			Help:      "Unix time of the most recent reconcile event.",
		}),
	}
}

// MarkEvent records that a reconcile event arrived now.
func (s *Store) MarkEvent() {
	now := s.clock.Now()

	s.mu.Lock()
	s.lastEvent = now
	s.mu.Unlock()

	s.lastEventGauge.Set(float64(now.UnixNano()) / float64(time.Second))
}

// IncHandled counts one fully handled event.
func (s *Store) IncHandled() {
	s.mu.Lock()
	s.handledEvents++
	s.mu.Unlock()

	s.handledTotal.Inc()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{LastEvent: s.lastEvent, HandledEvents: s.handledEvents}
}

// Register adds the store's metrics to reg.
func (s *Store) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{s.handledTotal, s.lastEventGauge} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the current snapshot as JSON.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		body, err := json.Marshal(s.Snapshot())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}
