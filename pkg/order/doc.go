// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package order implements the EBICS order commands and the transaction
phase state machine they drive.

Each order type is a [Command]. A command produces the request documents
of every phase and interprets the bank's responses; all per-transaction
state lives in an explicit [Transaction] owned by one run:

	sess := order.NewSession(subscriber, keyring)
	cmd, err := order.New(sess, "STA", order.Params{DateRange: &dr})
	tx := order.NewTransaction(cmd)

	init, err := cmd.BuildInitRequest(tx)
	// send, then
	resp, err := sess.Deserialize(cmd, tx, body)

Supported order types:

	CCT  credit transfer (pain.001), signed upload
	INI  signature key initialisation, unsecured single request
	PTK  customer protocol download
	SPR  suspension of access, signed placeholder upload
	STA  statement download with date range (also Z01, Z53, Z54, ZS2,
	     ZS3, ZS4, ZQR, ZRF, XTD, C52, C53)

Further order types are added with [Register].
*/
package order
