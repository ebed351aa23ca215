package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContent(t *testing.T) {
	t.Run("DeterministicOverEqualBytes", func(t *testing.T) {
		a := Content([]byte("export function foo() {}"))
		b := Content([]byte("export function foo() {}"))
		assert.Equal(t, a, b)
	})

	t.Run("DiffersOverDifferentBytes", func(t *testing.T) {
		a := Content([]byte("export function foo() {}"))
		b := Content([]byte("export function bar() {}"))
		assert.NotEqual(t, a, b)
	})

	t.Run("RendersAsSixteenLowercaseHexDigits", func(t *testing.T) {
		h := Content([]byte("anything"))
		assert.Len(t, h, 16)
		assert.Regexp(t, `^[0-9a-f]{16}$`, h)
	})

	t.Run("EmptyInputIsStable", func(t *testing.T) {
		a := Content([]byte{})
		b := Content([]byte{})
		assert.Equal(t, a, b)
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("SameTupleProducesSameFingerprint", func(t *testing.T) {
		a := Fingerprint("doThing", "function", "params:2|async:0")
		b := Fingerprint("doThing", "function", "params:2|async:0")
		assert.Equal(t, a, b)
	})

	t.Run("NameChangeAltersFingerprint", func(t *testing.T) {
		a := Fingerprint("doThing", "function", "params:2|async:0")
		b := Fingerprint("doOtherThing", "function", "params:2|async:0")
		assert.NotEqual(t, a, b)
	})

	t.Run("SignatureChangeAltersFingerprint", func(t *testing.T) {
		a := Fingerprint("doThing", "function", "params:2|async:0")
		b := Fingerprint("doThing", "function", "params:3|async:0")
		assert.NotEqual(t, a, b)
	})

	t.Run("NullSignatureSummaryIsStableInput", func(t *testing.T) {
		a := Fingerprint("Widget", "class", "")
		b := Fingerprint("Widget", "class", "")
		assert.Equal(t, a, b)
	})
}

func TestCallableSignatureSummary(t *testing.T) {
	t.Run("SyncFunction", func(t *testing.T) {
		assert.Equal(t, "params:2|async:0", CallableSignatureSummary(2, false))
	})

	t.Run("AsyncFunction", func(t *testing.T) {
		assert.Equal(t, "params:0|async:1", CallableSignatureSummary(0, true))
	})
}
