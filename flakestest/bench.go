// Copyright © 2018 The ELPS authors

// Package flakestest contains helpers shared by the tests of the flakes
// packages.
package flakestest

import (
	"os"
	"testing"
)

// BenchmarkSource returns a benchmark that calls check on src once per
// iteration.
func BenchmarkSource(src []byte, check func([]byte) error) func(*testing.B) {
	return func(b *testing.B) {
		b.SetBytes(int64(len(src)))
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if err := check(src); err != nil {
				b.Fatalf("check failure: %v", err)
			}
		}
	}
}

// BenchmarkFile is BenchmarkSource for the contents of the file at path.
func BenchmarkFile(path string, check func([]byte) error) func(*testing.B) {
	return func(b *testing.B) {
		src, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		BenchmarkSource(src, check)(b)
	}
}
