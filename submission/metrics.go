// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package submission

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/solanatx/ledger/common"
)

// Metrics tracks submission activity.
// Uses atomic counters for thread-safe operation.
type Metrics struct {
	// Counters (atomic)
	submitted        atomic.Uint64
	confirmed        atomic.Uint64
	rejected         atomic.Uint64
	sendErrors       atomic.Uint64
	timedOut         atomic.Uint64
	airdrops         atomic.Uint64
	airdropsRejected atomic.Uint64
	statusPolls      atomic.Uint64
	statusErrors     atomic.Uint64

	// Timing (requires mutex)
	mu                sync.RWMutex
	lastConfirmTime   time.Time
	totalConfirmDelay time.Duration
	startTime         time.Time
}

// Stats is a snapshot of Metrics
type Stats struct {
	Submitted uint64
	Confirmed uint64
	Rejected  uint64
	// SendErrors counts sends that failed without a ledger verdict, such as
	// transport failures and cancellation
	SendErrors       uint64
	TimedOut         uint64
	Airdrops         uint64
	AirdropsRejected uint64
	StatusPolls      uint64
	StatusErrors     uint64
	// AvgConfirmDelay is the mean time from the first status read to the
	// target commitment
	AvgConfirmDelay time.Duration
	LastConfirmTime time.Time
	StartTime       time.Time
}

// NewMetrics creates a new Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordSubmit records a send result. Only ledger rejections count as
// rejected.
func (m *Metrics) RecordSubmit(err error) {
	switch {
	case err == nil:
		m.submitted.Add(1)
	case errors.Is(err, common.ErrSimulationRejected):
		m.rejected.Add(1)
	default:
		m.sendErrors.Add(1)
	}
}

// RecordAirdrop records an airdrop request result.
func (m *Metrics) RecordAirdrop(err error) {
	if err != nil {
		m.airdropsRejected.Add(1)
	} else {
		m.airdrops.Add(1)
	}
}

// RecordStatusPoll records a signature status read.
func (m *Metrics) RecordStatusPoll(err error) {
	m.statusPolls.Add(1)
	if err != nil {
		m.statusErrors.Add(1)
	}
}

// RecordConfirm records a transaction reaching its target commitment.
func (m *Metrics) RecordConfirm(delay time.Duration) {
	m.mu.Lock()
	m.confirmed.Add(1)
	m.lastConfirmTime = time.Now()
	m.totalConfirmDelay += delay
	m.mu.Unlock()
}

// RecordTimeout records a wait that gave up before the target commitment.
func (m *Metrics) RecordTimeout() {
	m.timedOut.Add(1)
}

// RecordRejected records a transaction that failed on the ledger after
// being accepted.
func (m *Metrics) RecordRejected() {
	m.rejected.Add(1)
}

// Stats returns a snapshot of the current metrics.
func (m *Metrics) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Submitted:        m.submitted.Load(),
		Confirmed:        m.confirmed.Load(),
		Rejected:         m.rejected.Load(),
		SendErrors:       m.sendErrors.Load(),
		TimedOut:         m.timedOut.Load(),
		Airdrops:         m.airdrops.Load(),
		AirdropsRejected: m.airdropsRejected.Load(),
		StatusPolls:      m.statusPolls.Load(),
		StatusErrors:     m.statusErrors.Load(),
		LastConfirmTime:  m.lastConfirmTime,
		StartTime:        m.startTime,
	}
	if stats.Confirmed > 0 {
		// #nosec G115
		stats.AvgConfirmDelay = m.totalConfirmDelay / time.Duration(stats.Confirmed)
	}
	return stats
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.submitted.Store(0)
	m.confirmed.Store(0)
	m.rejected.Store(0)
	m.sendErrors.Store(0)
	m.timedOut.Store(0)
	m.airdrops.Store(0)
	m.airdropsRejected.Store(0)
	m.statusPolls.Store(0)
	m.statusErrors.Store(0)

	m.mu.Lock()
	m.lastConfirmTime = time.Time{}
	m.totalConfirmDelay = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}
