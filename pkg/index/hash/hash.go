// Package hash provides the two stable 64-bit hashes used by the indexer:
// file content hashes and symbol fingerprints. Both render as 16 lowercase
// hex digits.
package hash

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Content returns the stable content hash of data, rendered as 16 lowercase
// hex digits. Equal bytes always produce an equal string.
func Content(data []byte) string {
	return render(xxhash.Sum64(data))
}

// Fingerprint returns the stable hash of a symbol's
// name|kind|signature-summary tuple, the sole key used by the move tracker
// to recognize a symbol that moved files.
func Fingerprint(name, kind, signatureSummary string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	b.WriteString(kind)
	b.WriteByte('|')
	b.WriteString(signatureSummary)
	return render(xxhash.Sum64String(b.String()))
}

// CallableSignatureSummary builds the signature-summary string for a
// callable symbol (function or method): "params:<N>|async:<0|1>".
func CallableSignatureSummary(paramCount int, async bool) string {
	asyncFlag := 0
	if async {
		asyncFlag = 1
	}
	return fmt.Sprintf("params:%d|async:%d", paramCount, asyncFlag)
}

func render(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
