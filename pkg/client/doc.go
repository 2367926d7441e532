// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package client drives EBICS transactions over a transport.

A Runner executes one order command through its phases:

 1. Initialisation - a single request, answered with the transaction id
 2. Transfer - one request per segment, in ascending segment order
 3. Receipt - the closing acknowledgement of a download

Every request is sent exactly once. Phases are never retried: a transport
failure, an error return code or a recovery synchronisation request ends
the transaction and is returned as a *protocol.Error.

	session := order.NewSession(subscriber, keys)
	runner := client.NewRunner(session, transport.NewBankTransport(nil, url))

	cmd, err := order.NewSTA(session, "STA", &protocol.DateRange{Start: from, End: to})
	if err != nil {
	    return err
	}
	tx, err := runner.Run(ctx, cmd)
	if err != nil {
	    return err
	}
	statements, err := tx.Result()

# Journal

A Journal, when configured, is called after every state transition with
the transaction. Journal failures are logged and do not affect the run.
*/
package client
