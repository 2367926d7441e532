// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package security implements the EBICS crypto envelope.

Every outbound order payload passes through the same pipeline:

	compress (zlib) -> encrypt (AES-128-CBC) -> base64

and every inbound payload through the inverse, in fixed order:

	base64 -> decrypt -> decompress

# Transaction Keys

Each transaction uses a fresh 128-bit AES key. Uploads generate the key on
the client and wrap it for the bank with RSAES-PKCS1-v1_5 (E002). Downloads
receive a bank generated key wrapped with the user's encryption key.

	key, err := security.GenerateTransactionKey()
	env := security.NewEnvelope(keyring)
	orderData, err := env.Protect(payload, key)
	wrapped, err := env.EncryptRSA(key)

# Signatures

Order data is signed with the user's electronic signature key (A005 or
A006). The signed bytes must be in canonical form, without line breaks
or tabs:

	value, err := env.SignData(security.Canonicalize(document))

Requests are authenticated with X002. All elements marked
authenticate="true" are canonicalized (C14N 1.0), digested with SHA-256
and referenced from the AuthSignature element:

	err := security.Authenticate(doc, keyring.UserAuthentication)
	err := security.VerifyAuthentication(responseDoc, keyring.BankAuthentication)

# Key Digests

Bank keys are identified by the SHA-256 hash of their hex encoded
exponent and modulus, see [PublicKeyDigest].

# References

  - EBICS Specification 2.5, chapter 11 and 15
  - XML Signature: https://www.w3.org/TR/xmldsig-core1/
  - Canonical XML 1.0: https://www.w3.org/TR/2001/REC-xml-c14n-20010315
*/
package security
