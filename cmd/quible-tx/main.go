// quible-tx CLI - Quible transaction encoder and signer
//
// This CLI encodes, decodes and signs Quible transactions described as
// JSON, and builds identity transactions. It never contacts a node: the
// hex it prints is handed to quible_sendRawTransaction by other tooling.
//
// Example usage:
//
//	# Encode a transaction description
//	quible-tx encode tx.json
//
//	# Sign every input with a local key
//	QUIBLE_SIGNING_KEY=0x... quible-tx sign tx.json
//
//	# Create an identity funded by a faucet output
//	quible-tx identity create --funding-txid 0x... --claim alice@example.com
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRuntimeArguments().MakeCmd().ExecuteContext(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("quible-tx failed")
		stop()
		os.Exit(1)
	}
}
