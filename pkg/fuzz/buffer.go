// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fuzz

import (
	"fmt"
	"math"
)

// DefaultGrowthRatio is used by drivers that do not configure a ratio.
const DefaultGrowthRatio = 2.0

// Buffer is a reusable mutation buffer. Its length is the size of the current
// candidate; its capacity is reserved ahead so that mutations which grow the
// candidate rarely reallocate.
type Buffer struct {
	data  []byte
	ratio float64
}

// NewBuffer allocates a buffer able to hold ceil(inputLen*ratio) bytes
// without reallocating. It fails when ratio is not positive or inputLen is
// negative.
func NewBuffer(inputLen int, ratio float64) (*Buffer, error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, fmt.Errorf("buffer growth ratio must be positive, got %v", ratio)
	}
	if inputLen < 0 {
		return nil, fmt.Errorf("buffer input length must not be negative, got %d", inputLen)
	}

	capacity := reserve(inputLen, ratio)
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]byte, 0, capacity), ratio: ratio}, nil
}

// Bytes returns the current candidate. The slice aliases the buffer and is
// only valid until the next mutating call.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the size of the current candidate.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the number of bytes the buffer holds without reallocating.
func (b *Buffer) Cap() int { return cap(b.data) }

// Reset empties the candidate but keeps the allocation.
func (b *Buffer) Reset() { b.data = b.data[:0] }

// Resize sets the candidate length to n, keeping existing content up to n.
// Bytes exposed by growing within capacity are zeroed.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n > cap(b.data) {
		grown := make([]byte, len(b.data), reserve(n, b.growth()))
		copy(grown, b.data)
		b.data = grown
	}
	old := len(b.data)
	b.data = b.data[:n]
	if n > old {
		clear(b.data[old:])
	}
}

// SetBytes replaces the candidate with a copy of p.
func (b *Buffer) SetBytes(p []byte) {
	b.Resize(len(p))
	copy(b.data, p)
}

// Clone returns an owned copy of the current candidate.
func (b *Buffer) Clone() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (b *Buffer) growth() float64 {
	if b.ratio > 1 {
		return b.ratio
	}
	return DefaultGrowthRatio
}

func reserve(n int, ratio float64) int {
	want := math.Ceil(float64(n) * ratio)
	if want > math.MaxInt32 {
		return n
	}
	if int(want) < n {
		return n
	}
	return int(want)
}
