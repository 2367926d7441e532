// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package segment splits protected order data into EBICS segments and
reassembles downloaded segments.

Uploads send the base64 encoded, encrypted order data as an ordered
sequence of segments. The segment count is announced to the bank in the
Initialisation request (NumSegments) and every Transfer request carries
exactly one segment.

	segments, err := segment.Split(orderData, segment.DefaultMaxSize)

Downloads receive one segment per response. A [Reassembler] is sized from
the NumSegments value of the Initialisation response and is filled by
segment number:

	r := segment.NewReassembler(numSegments)
	err := r.Put(segmentNumber, data)
	if r.Complete() {
	    orderData := r.Bytes()
	}
*/
package segment
