package sourcetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash_DeterministicForEqualInput(t *testing.T) {
	t.Parallel()

	a := ContentHash("public void Foo() {}")
	b := ContentHash("public void Foo() {}")

	assert.Equal(t, a, b)
}

func TestContentHash_DiffersForDifferentInput(t *testing.T) {
	t.Parallel()

	a := ContentHash("public void Foo() {}")
	b := ContentHash("public void Bar() {}")

	assert.NotEqual(t, a, b)
}

func TestContentHash_EmptyStringIsStable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ContentHash(""), ContentHash(""))
}

func TestCombineHash_DeterministicForEqualInputs(t *testing.T) {
	t.Parallel()

	a := CombineHash(1, 2, 3)
	b := CombineHash(1, 2, 3)

	assert.Equal(t, a, b)
}

func TestCombineHash_ChangingAnyChildChangesResult(t *testing.T) {
	t.Parallel()

	base := CombineHash(1, 2, 3)

	assert.NotEqual(t, base, CombineHash(1, 99, 3))
	assert.NotEqual(t, base, CombineHash(1, 2, 99))
	assert.NotEqual(t, base, CombineHash(99, 2, 3))
}

func TestCombineHash_OrderSensitive(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, CombineHash(1, 2, 3), CombineHash(1, 3, 2))
}

func TestCombineHash_NoChildrenReturnsSelf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(42), CombineHash(42))
}
