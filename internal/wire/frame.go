// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrShortFrame is returned when a byte slice is too small to contain a
// valid frame header.
var ErrShortFrame = errors.New("wire: frame shorter than header")

// ErrTruncated is returned when the length prefix promises more body bytes
// than are actually present.
var ErrTruncated = errors.New("wire: frame body truncated")

// headerSize is 1 tag byte + 4 big-endian length bytes.
const headerSize = 5

// Encode frames a tagged message as [tag][len(body) big-endian uint32][body].
// body is the JSON encoding of msg.
func Encode(tag Tag, msg any) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s: %w", tag, err)
	}

	frame := make([]byte, headerSize+len(body))
	frame[0] = byte(tag)
	binary.BigEndian.PutUint32(frame[1:headerSize], uint32(len(body)))
	copy(frame[headerSize:], body)

	return frame, nil
}

// Decode splits a frame back into its tag and raw JSON body. It does not
// unmarshal the body into a concrete type; callers dispatch on tag first.
// A protocol-violation (malformed frame) returns an error; callers must
// treat this as recoverable per the spec's error taxonomy (drop the packet,
// keep the connection).
func Decode(frame []byte) (Tag, []byte, error) {
	if len(frame) < headerSize {
		return 0, nil, ErrShortFrame
	}

	tag := Tag(frame[0])
	length := binary.BigEndian.Uint32(frame[1:headerSize])

	if int(length) != len(frame)-headerSize {
		return 0, nil, ErrTruncated
	}

	return tag, frame[headerSize:], nil
}

// Unmarshal decodes a frame and unmarshals its body into dst in one step.
func Unmarshal(frame []byte, dst any) (Tag, error) {
	tag, body, err := Decode(frame)
	if err != nil {
		return 0, err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return tag, fmt.Errorf("wire: unmarshal %s body: %w", tag, err)
	}

	return tag, nil
}
