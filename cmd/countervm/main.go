// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/consts"
	"github.com/lodestone-hq/countervm/runtime"
	"github.com/lodestone-hq/countervm/state"
	"github.com/lodestone-hq/countervm/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", consts.Name, err)
		os.Exit(1)
	}
}

func run() error {
	parser := argparse.NewParser(consts.Name, "drive the counter program against an in-process runtime")
	owners := parser.Int("o", "owners", &argparse.Options{
		Default: 2,
		Help:    "number of owner identities to create",
	})
	increments := parser.Int("n", "increments", &argparse.Options{
		Default: 3,
		Help:    "increments to apply per owner",
	})
	logLevel := parser.String("l", "log-level", &argparse.Options{
		Default: "info",
		Help:    "log level (debug, info, warn, error)",
	})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		return err
	}

	level, err := logging.ToLevel(*logLevel)
	if err != nil {
		return err
	}
	log := logging.NewLogger(
		consts.Name,
		logging.NewWrappedCore(
			level,
			os.Stderr,
			logging.Plain.ConsoleEncoder(),
		),
	)
	log.Info("starting",
		zap.Stringer("programID", consts.ID),
		zap.Stringer("version", consts.Version),
	)

	rt, err := runtime.New(log, state.NewInMemoryStore(), prometheus.NewRegistry())
	if err != nil {
		return err
	}

	ctx := context.Background()
	for i := 0; i < *owners; i++ {
		priv, err := auth.GeneratePrivateKey()
		if err != nil {
			return err
		}
		owner := priv.PublicKey()

		tx, err := runtime.NewTransaction(consts.InitializeID, priv)
		if err != nil {
			return err
		}
		if _, err := rt.Submit(ctx, tx); err != nil {
			return err
		}

		// A duplicate initialize must be rejected, not absorbed.
		if _, err := rt.Submit(ctx, tx); !errors.Is(err, storage.ErrAlreadyInitialized) {
			return fmt.Errorf("duplicate initialize was not rejected (err: %v)", err)
		}

		txs := make([]*runtime.Transaction, 0, *increments)
		for j := 0; j < *increments; j++ {
			tx, err := runtime.NewTransaction(consts.IncrementID, priv)
			if err != nil {
				return err
			}
			txs = append(txs, tx)
		}
		if _, err := rt.SubmitBatch(ctx, txs); err != nil {
			return err
		}

		count, _, err := rt.Counter(ctx, owner)
		if err != nil {
			return err
		}
		log.Info("owner done",
			zap.Stringer("owner", owner),
			zap.Uint64("count", count),
		)
	}
	return nil
}
