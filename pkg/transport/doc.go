// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport implements the HTTPS transport for EBICS requests.

EBICS requests are XML documents posted to the bank's EBICS URL. The bank
answers every request, including rejected ones, with HTTP 200 and an
EBICS response document; any other status is a transport failure.

# TLS Configuration

TLS 1.2 is the minimum, TLS 1.3 is preferred:

	config := transport.DefaultHTTPSConfig()
	// MinTLSVersion: TLS 1.2
	// MaxTLSVersion: TLS 1.3

For TLS 1.2, the following cipher suites are recommended:
  - TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384
  - TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256
  - TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384
  - TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256

# Usage

A BankTransport binds a client to the bank URL and satisfies the
transport expected by the transaction runner:

	bank := transport.NewBankTransport(transport.NewHTTPSClient(nil), "https://ebics.example.com/ebicsweb")
	response, err := bank.Send(ctx, request)

# References

  - EBICS Specification 2.5, Annex 2 (transport)
  - TLS 1.3 RFC 8446: https://datatracker.ietf.org/doc/html/rfc8446
  - TLS 1.2 RFC 5246: https://datatracker.ietf.org/doc/html/rfc5246
*/
package transport
