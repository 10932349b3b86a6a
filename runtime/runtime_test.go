// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"sync"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-hq/countervm/actions"
	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/consts"
	"github.com/lodestone-hq/countervm/state"
	"github.com/lodestone-hq/countervm/storage"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(logging.NoLog{}, state.NewInMemoryStore(), prometheus.NewRegistry())
	require.NoError(t, err)
	return rt
}

func newTestOwner(t *testing.T) auth.PrivateKey {
	t.Helper()
	priv, err := auth.GeneratePrivateKey()
	require.NoError(t, err)
	return priv
}

// The full lifecycle: initialize -> count 0, three increments -> count 3,
// re-initialize rejected with the count untouched.
func TestCounterLifecycle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)
	owner := priv.PublicKey()

	init, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	result, err := rt.Submit(ctx, init)
	require.NoError(err)
	require.Equal(&actions.InitializeResult{Count: 0}, result)

	for want := uint64(1); want <= 3; want++ {
		inc, err := NewTransaction(consts.IncrementID, priv)
		require.NoError(err)
		result, err := rt.Submit(ctx, inc)
		require.NoError(err)
		require.Equal(&actions.IncrementResult{Count: want}, result)
	}

	_, err = rt.Submit(ctx, init)
	require.ErrorIs(err, storage.ErrAlreadyInitialized)

	count, exists, err := rt.Counter(ctx, owner)
	require.NoError(err)
	require.True(exists)
	require.Equal(uint64(3), count)

	require.Equal(float64(1), testutil.ToFloat64(rt.metrics.initialized))
	require.Equal(float64(3), testutil.ToFloat64(rt.metrics.incremented))
	require.Equal(float64(1), testutil.ToFloat64(rt.metrics.rejected))
}

func TestIncrementBeforeInitialize(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	inc, err := NewTransaction(consts.IncrementID, priv)
	require.NoError(err)
	_, err = rt.Submit(ctx, inc)
	require.ErrorIs(err, storage.ErrRecordNotFound)

	_, exists, err := rt.Counter(ctx, priv.PublicKey())
	require.NoError(err)
	require.False(exists)
}

func TestInvalidSignature(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	tx, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	tx.Signature[0] ^= 0xff

	_, err = rt.Submit(ctx, tx)
	require.ErrorIs(err, ErrInvalidSignature)

	_, exists, err := rt.Counter(ctx, priv.PublicKey())
	require.NoError(err)
	require.False(exists)
}

func TestForgedTarget(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)
	victim := newTestOwner(t)

	// Well-signed envelope pointing at somebody else's derived address.
	victimAddr, victimBump, err := storage.CounterAddress(victim.PublicKey())
	require.NoError(err)
	env := Envelope{
		Program: consts.ID,
		Kind:    consts.InitializeID,
		Owner:   priv.PublicKey(),
		Target:  victimAddr,
		Bump:    victimBump,
	}
	msg, err := env.Bytes()
	require.NoError(err)
	tx := &Transaction{Envelope: env, Signature: auth.Sign(msg, priv)}

	_, err = rt.Submit(ctx, tx)
	require.ErrorIs(err, actions.ErrAddressMismatch)
}

func TestWrongBump(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	tx, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	tx.Envelope.Bump--
	msg, err := tx.Envelope.Bytes()
	require.NoError(err)
	tx.Signature = auth.Sign(msg, priv)

	_, err = rt.Submit(ctx, tx)
	require.ErrorIs(err, actions.ErrAddressMismatch)
}

func TestWrongProgram(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	tx, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	tx.Envelope.Program = ids.GenerateTestID()
	msg, err := tx.Envelope.Bytes()
	require.NoError(err)
	tx.Signature = auth.Sign(msg, priv)

	_, err = rt.Submit(ctx, tx)
	require.ErrorIs(err, ErrWrongProgram)
}

func TestUnknownInstruction(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	tx, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	tx.Envelope.Kind = 0xff
	msg, err := tx.Envelope.Bytes()
	require.NoError(err)
	tx.Signature = auth.Sign(msg, priv)

	_, err = rt.Submit(ctx, tx)
	require.ErrorIs(err, ErrUnknownInstruction)
}

func TestOwnerIsolation(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	privA := newTestOwner(t)
	privB := newTestOwner(t)

	addrA, _, err := storage.CounterAddress(privA.PublicKey())
	require.NoError(err)
	addrB, _, err := storage.CounterAddress(privB.PublicKey())
	require.NoError(err)
	require.NotEqual(addrA, addrB)

	for _, priv := range []auth.PrivateKey{privA, privB} {
		tx, err := NewTransaction(consts.InitializeID, priv)
		require.NoError(err)
		_, err = rt.Submit(ctx, tx)
		require.NoError(err)
	}
	for i := 0; i < 5; i++ {
		tx, err := NewTransaction(consts.IncrementID, privA)
		require.NoError(err)
		_, err = rt.Submit(ctx, tx)
		require.NoError(err)
	}

	countA, _, err := rt.Counter(ctx, privA.PublicKey())
	require.NoError(err)
	require.Equal(uint64(5), countA)

	countB, _, err := rt.Counter(ctx, privB.PublicKey())
	require.NoError(err)
	require.Zero(countB)
}

// Submits for distinct owners run concurrently and commit into the shared
// store; records must never interfere with one another.
func TestConcurrentOwners(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	const (
		owners     = 8
		increments = 25
	)

	privs := make([]auth.PrivateKey, owners)
	for i := range privs {
		privs[i] = newTestOwner(t)
	}

	errs := make([]error, owners)
	var wg sync.WaitGroup
	for i := range privs {
		wg.Add(1)
		go func(i int, priv auth.PrivateKey) {
			defer wg.Done()
			tx, err := NewTransaction(consts.InitializeID, priv)
			if err != nil {
				errs[i] = err
				return
			}
			if _, err := rt.Submit(ctx, tx); err != nil {
				errs[i] = err
				return
			}
			for j := 0; j < increments; j++ {
				tx, err := NewTransaction(consts.IncrementID, priv)
				if err != nil {
					errs[i] = err
					return
				}
				if _, err := rt.Submit(ctx, tx); err != nil {
					errs[i] = err
					return
				}
				if _, _, err := rt.Counter(ctx, priv.PublicKey()); err != nil {
					errs[i] = err
					return
				}
			}
		}(i, privs[i])
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(err)
	}
	for _, priv := range privs {
		count, exists, err := rt.Counter(ctx, priv.PublicKey())
		require.NoError(err)
		require.True(exists)
		require.Equal(uint64(increments), count)
	}
}

func TestSubmitBatch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	privA := newTestOwner(t)
	privB := newTestOwner(t)

	for _, priv := range []auth.PrivateKey{privA, privB} {
		tx, err := NewTransaction(consts.InitializeID, priv)
		require.NoError(err)
		_, err = rt.Submit(ctx, tx)
		require.NoError(err)
	}

	txs := make([]*Transaction, 0, 5)
	for i := 0; i < 3; i++ {
		tx, err := NewTransaction(consts.IncrementID, privA)
		require.NoError(err)
		txs = append(txs, tx)
	}
	for i := 0; i < 2; i++ {
		tx, err := NewTransaction(consts.IncrementID, privB)
		require.NoError(err)
		txs = append(txs, tx)
	}

	results, err := rt.SubmitBatch(ctx, txs)
	require.NoError(err)
	require.Len(results, 5)

	countA, _, err := rt.Counter(ctx, privA.PublicKey())
	require.NoError(err)
	require.Equal(uint64(3), countA)
	countB, _, err := rt.Counter(ctx, privB.PublicKey())
	require.NoError(err)
	require.Equal(uint64(2), countB)

	require.Equal(float64(5), testutil.ToFloat64(rt.metrics.incremented))
}

func TestSubmitBatchInvalidSignature(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	privA := newTestOwner(t)
	privB := newTestOwner(t)

	good, err := NewTransaction(consts.InitializeID, privA)
	require.NoError(err)
	bad, err := NewTransaction(consts.InitializeID, privB)
	require.NoError(err)
	bad.Signature[0] ^= 0xff

	// The whole batch is rejected; nothing executes, not even the valid tx.
	results, err := rt.SubmitBatch(ctx, []*Transaction{good, bad})
	require.ErrorIs(err, ErrInvalidSignature)
	require.Empty(results)

	for _, priv := range []auth.PrivateKey{privA, privB} {
		_, exists, err := rt.Counter(ctx, priv.PublicKey())
		require.NoError(err)
		require.False(exists)
	}
	require.Equal(float64(2), testutil.ToFloat64(rt.metrics.rejected))
}

func TestSubmitBatchStopsAtFirstRejection(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	init, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	inc, err := NewTransaction(consts.IncrementID, priv)
	require.NoError(err)

	// init, inc, init: the duplicate initialize fails after the first two
	// instructions have committed.
	results, err := rt.SubmitBatch(ctx, []*Transaction{init, inc, init})
	require.ErrorIs(err, storage.ErrAlreadyInitialized)
	require.Len(results, 2)

	count, _, err := rt.Counter(ctx, priv.PublicKey())
	require.NoError(err)
	require.Equal(uint64(1), count)
}

func TestSubmitRaw(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	rt := newTestRuntime(t)
	priv := newTestOwner(t)

	tx, err := NewTransaction(consts.InitializeID, priv)
	require.NoError(err)
	msg, err := tx.Envelope.Bytes()
	require.NoError(err)

	result, err := rt.SubmitRaw(ctx, msg, tx.Signature)
	require.NoError(err)
	require.Equal(&actions.InitializeResult{Count: 0}, result)

	count, exists, err := rt.Counter(ctx, priv.PublicKey())
	require.NoError(err)
	require.True(exists)
	require.Zero(count)
}
