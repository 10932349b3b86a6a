// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	initialized prometheus.Counter
	incremented prometheus.Counter
	rejected    prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		initialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "counters_initialized",
			Help:      "number of counter records initialized",
		}),
		incremented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "counters_incremented",
			Help:      "number of successful increments",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "instructions_rejected",
			Help:      "number of instructions rejected before commit",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.initialized),
		r.Register(m.incremented),
		r.Register(m.rejected),
	)
	return m, errs.Err
}
