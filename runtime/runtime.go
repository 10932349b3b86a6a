// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/near/borsh-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lodestone-hq/countervm/actions"
	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/consts"
	"github.com/lodestone-hq/countervm/pda"
	"github.com/lodestone-hq/countervm/state"
	"github.com/lodestone-hq/countervm/storage"
)

// Runtime is the in-process stand-in for the hosting platform: it verifies
// instruction signatures, re-derives target addresses, serializes execution
// per address, and commits each instruction's writes atomically. The
// program itself never sees any of this; it only receives a scoped
// [state.Mutable].
type Runtime struct {
	log     logging.Logger
	metrics *metrics
	store   state.Mutable

	lock  sync.Mutex
	locks map[pda.Address]*sync.Mutex
}

func New(
	log logging.Logger,
	store state.Mutable,
	registry prometheus.Registerer,
) (*Runtime, error) {
	m, err := newMetrics(registry)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		log:     log,
		metrics: m,
		store:   store,
		locks:   make(map[pda.Address]*sync.Mutex),
	}, nil
}

// Submit verifies and executes [tx], returning the typed action result.
// On any error the store is untouched.
func (r *Runtime) Submit(ctx context.Context, tx *Transaction) (actions.Result, error) {
	msg, err := tx.Envelope.Bytes()
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, &tx.Envelope, msg, tx.Signature)
}

// SubmitRaw executes a wire-encoded envelope with its detached signature.
func (r *Runtime) SubmitRaw(
	ctx context.Context,
	envelopeBytes []byte,
	sig auth.Signature,
) (actions.Result, error) {
	env := &Envelope{}
	if err := borsh.Deserialize(env, envelopeBytes); err != nil {
		return nil, err
	}
	return r.submit(ctx, env, envelopeBytes, sig)
}

// SubmitBatch verifies the signatures of [txs] in a single batch and then
// executes the instructions in order. A failed batch verification rejects
// every transaction before anything executes; once execution starts, each
// instruction commits atomically, so a later rejection returns the results
// of the instructions already applied alongside the error.
func (r *Runtime) SubmitBatch(ctx context.Context, txs []*Transaction) ([]actions.Result, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	batch := auth.NewBatch(len(txs))
	for _, tx := range txs {
		msg, err := tx.Envelope.Bytes()
		if err != nil {
			return nil, err
		}
		batch.Add(msg, tx.Envelope.Owner, tx.Signature)
	}
	if !batch.Verify() {
		r.metrics.rejected.Add(float64(len(txs)))
		r.log.Debug("batch rejected",
			zap.Int("txs", len(txs)),
			zap.Error(ErrInvalidSignature),
		)
		return nil, ErrInvalidSignature
	}

	results := make([]actions.Result, 0, len(txs))
	for _, tx := range txs {
		result, err := r.execute(ctx, &tx.Envelope)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Counter is the read path: the current count for [owner] and whether the
// record exists. No mutation, no events.
func (r *Runtime) Counter(ctx context.Context, owner auth.PublicKey) (uint64, bool, error) {
	addr, _, err := storage.CounterAddress(owner)
	if err != nil {
		return 0, false, err
	}
	return storage.GetCounter(ctx, r.store, addr)
}

func (r *Runtime) submit(
	ctx context.Context,
	env *Envelope,
	msg []byte,
	sig auth.Signature,
) (actions.Result, error) {
	if !auth.Verify(msg, env.Owner, sig) {
		return nil, r.reject(env, ErrInvalidSignature)
	}
	return r.execute(ctx, env)
}

func (r *Runtime) execute(ctx context.Context, env *Envelope) (actions.Result, error) {
	if env.Program != consts.ID {
		return nil, r.reject(env, ErrWrongProgram)
	}

	var action actions.Action
	switch env.Kind {
	case consts.InitializeID:
		action = &actions.Initialize{}
	case consts.IncrementID:
		action = &actions.Increment{}
	default:
		return nil, r.reject(env, ErrUnknownInstruction)
	}

	expected, bump, err := storage.CounterAddress(env.Owner)
	if err != nil {
		return nil, r.reject(env, err)
	}
	if expected != env.Target || bump != env.Bump {
		return nil, r.reject(env, actions.ErrAddressMismatch)
	}

	// Total order per derived address; no ordering across addresses.
	mu := r.lockFor(env.Target)
	mu.Lock()
	defer mu.Unlock()

	view := newScopedState(r.store, action.StateKeys(env.Owner, env.Target))
	result, err := action.Execute(ctx, view, env.Owner, env.Target)
	if err != nil {
		return nil, r.reject(env, err)
	}
	if err := view.commit(ctx, r.store); err != nil {
		return nil, r.reject(env, err)
	}

	switch res := result.(type) {
	case *actions.InitializeResult:
		r.metrics.initialized.Inc()
		r.log.Info("counter initialized, count = 0",
			zap.Stringer("owner", env.Owner),
			zap.Stringer("address", env.Target),
		)
	case *actions.IncrementResult:
		r.metrics.incremented.Inc()
		r.log.Info("counter incremented",
			zap.Uint64("count", res.Count),
			zap.Stringer("owner", env.Owner),
			zap.Stringer("address", env.Target),
		)
	}
	return result, nil
}

func (r *Runtime) reject(env *Envelope, err error) error {
	r.metrics.rejected.Inc()
	r.log.Debug("instruction rejected",
		zap.Uint8("kind", env.Kind),
		zap.Stringer("owner", env.Owner),
		zap.Error(err),
	)
	return err
}

func (r *Runtime) lockFor(addr pda.Address) *sync.Mutex {
	r.lock.Lock()
	defer r.lock.Unlock()
	mu, ok := r.locks[addr]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[addr] = mu
	}
	return mu
}
