// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package protocol builds EBICS H004 request documents and interprets bank
responses.

# Requests

A [RequestBuilder] carries the subscriber identity (host, partner, user)
and produces the documents of each transaction phase:

	b := protocol.NewRequestBuilder(protocol.Subscriber{
	    HostID:    "EBIXHOST",
	    PartnerID: "PARTNER1",
	    UserID:    "USER0001",
	})

	init := b.InitRequest(protocol.InitParams{...})
	transfer := b.TransferRequest(txID, 2, true, segment)
	receipt := b.ReceiptRequest(txID, protocol.ReceiptCodeOK)

Documents returned by the builder are not yet authenticated; the caller
signs them with security.Authenticate before serialization.

# Responses

[Deserialize] reads the technical and business return codes first. An
error code sets HasError, the recovery code 061101 sets IsRecoverySync,
and in both cases no further fields are extracted. Otherwise the phase,
transaction id and segment metadata are read from the header.

	resp, err := protocol.Deserialize(body, protocol.WithBankAuthentication(bankKey))

# Errors

Failures are reported as [*Error] values carrying a [Kind]:

	var perr *protocol.Error
	if errors.As(err, &perr) && perr.Kind == protocol.KindRecoverySync {
	    // restart the transaction
	}
*/
package protocol
