// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package goebics implements the client side of the EBICS H004 banking
protocol: the crypto envelope, order data segmentation, response
interpretation and the phase state machine of EBICS transactions.

# Overview

go-ebics drives the transactions a corporate customer runs against an
EBICS bank server. Every transaction passes through up to three phases:

  - Initialisation: the order is announced, uploads carry the electronic
    signature and the wrapped transaction key
  - Transfer: order data segments are exchanged
  - Receipt: the client acknowledges a download

Uploads are compressed, encrypted with a fresh AES-128 transaction key and
split into segments of at most 1 MB. Downloads arrive as independently
protected segments and are reassembled in segment order.

# Specifications Implemented

  - EBICS 2.5 (schema H004): https://www.ebics.org/en/technical-information/ebics-specification
  - Signature versions A005 (RSASSA-PKCS1-v1_5) and A006 (RSASSA-PSS)
  - Authentication version X002 and encryption version E002
  - ISO 20022 pain.001.001.03 for SEPA credit transfers

# Package Structure

	github.com/sirosfoundation/go-ebics/pkg/security    - Crypto envelope, A005/A006, X002, E002
	github.com/sirosfoundation/go-ebics/pkg/compression - zlib order data compression
	github.com/sirosfoundation/go-ebics/pkg/segment     - Upload segmentation and download reassembly
	github.com/sirosfoundation/go-ebics/pkg/protocol    - Request documents, response interpreter, error kinds
	github.com/sirosfoundation/go-ebics/pkg/order       - Order commands (INI, SPR, PTK, STA, CCT) and transaction state
	github.com/sirosfoundation/go-ebics/pkg/client      - Transaction runner
	github.com/sirosfoundation/go-ebics/pkg/transport   - HTTPS transport with TLS 1.2/1.3

The ebicsctl command (cmd/ebicsctl) wires these packages to a YAML
configuration, PEM key files and a transaction journal.

# Quick Start

To download account statements:

	import (
	    "github.com/sirosfoundation/go-ebics/pkg/client"
	    "github.com/sirosfoundation/go-ebics/pkg/order"
	    "github.com/sirosfoundation/go-ebics/pkg/protocol"
	    "github.com/sirosfoundation/go-ebics/pkg/transport"
	)

	session := order.NewSession(protocol.Subscriber{
	    HostID:    "EBIXHOST",
	    PartnerID: "PARTNER1",
	    UserID:    "USER0001",
	}, keyring)

	bank := transport.NewBankTransport(nil, "https://ebics.example-bank.de/ebics")
	runner := client.NewRunner(session, bank)

	tx, err := runner.RunOrder(ctx, "STA", order.Params{DateRange: &protocol.DateRange{
	    Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	    End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil {
	    return err
	}
	statements, err := tx.Result()

# Error Handling

Every engine failure is a *protocol.Error whose Kind tells the caller what
went wrong:

  - protocol: the bank rejected a request with an error return code
  - recovery_sync: the bank demands resynchronisation (061101)
  - construction: a request could not be built, e.g. an invalid amount
  - deserialization: a response could not be parsed, verified or decrypted
  - transport: the request was not delivered

The runner never retries. A failed transaction stays failed.

# References

  - EBICS: https://www.ebics.org/
  - ISO 20022 payments: https://www.iso20022.org/
*/
package goebics
