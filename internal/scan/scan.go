// Package scan holds the byte-buffer primitives the request pipeline is
// built on: a Rabin-Karp substring search and a decimal field reader.
// Neither allocates anything the caller sees; both operate on raw capture
// buffers.
package scan

import "bytes"

// NotFound is returned by Find when the pattern does not occur.
const NotFound = -1

const (
	prime   = 31
	modulus = 1_000_000_009
)

// Find returns the lowest index at which pattern occurs contiguously in
// buf, or NotFound. An empty pattern is defined to match at index 0.
func Find(buf, pattern []byte) int {
	n, m := len(buf), len(pattern)
	if m == 0 {
		return 0
	}
	if m > n {
		return NotFound
	}

	// powers of the prime, shared by the prefix hashes and the shifted
	// pattern hash
	powers := make([]int64, n)
	powers[0] = 1
	for i := 1; i < n; i++ {
		powers[i] = powers[i-1] * prime % modulus
	}

	// prefix[i] hashes buf[:i], each byte weighted by the power of its
	// absolute position
	prefix := make([]int64, n+1)
	for i := 0; i < n; i++ {
		prefix[i+1] = (prefix[i] + int64(buf[i])*powers[i]) % modulus
	}

	var patternHash int64
	for i := 0; i < m; i++ {
		patternHash = (patternHash + int64(pattern[i])*powers[i]) % modulus
	}

	for i := 0; i+m <= n; i++ {
		windowHash := (prefix[i+m] - prefix[i] + modulus) % modulus
		if windowHash != patternHash*powers[i]%modulus {
			continue
		}
		// equal hashes can still be a collision, so confirm byte-wise
		if bytes.Equal(buf[i:i+m], pattern) {
			return i
		}
	}
	return NotFound
}

// numberCap bounds accumulation in Number. Runs that reach it report
// exactly numberCap; without the cap a long run would wrap the
// accumulator and could land back inside a plausible length.
const numberCap = 100_000_000

// Number reads a run of ASCII digits from the start of buf, stopping at
// the first CR or LF (exclusive) or the end of the buffer, and returns the
// base-10 value. An empty run yields 0; a run whose value exceeds
// numberCap saturates at numberCap. Bytes are not validated as digits;
// callers position buf immediately after a known field prefix and bound
// the result before trusting it as a length.
func Number(buf []byte) int {
	n := 0
	for _, b := range buf {
		if b == '\r' || b == '\n' {
			break
		}
		n = n*10 + int(b) - '0'
		if n > numberCap {
			return numberCap
		}
	}
	return n
}
