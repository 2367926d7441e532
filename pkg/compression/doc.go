// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression provides the deflate payload codec used by EBICS.

EBICS compresses every order data and signature document with a zlib
stream (RFC 1950) before it is encrypted with the transaction key.

# Compression

Compress order data before encryption:

	compressor := compression.NewCompressor()
	compressed, err := compressor.Compress(orderData)

Decompress decrypted order data:

	plain, err := compressor.Decompress(compressed)

The deflate level and an upper bound for inflated data are set with
options:

	compressor := compression.NewCompressor(
		compression.WithLevel(compression.BestSpeed),
		compression.WithMaxSize(64<<20),
	)

# References

  - EBICS specification 2.5, chapter 6.2 (compression)
  - ZLIB RFC 1950: https://datatracker.ietf.org/doc/html/rfc1950
*/
package compression
