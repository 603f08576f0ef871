package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "loading roster %s", "roster.json")

	assert.Contains(t, wrapped.Error(), "loading roster roster.json")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

type rosterProblem struct {
	field string
}

func (e *rosterProblem) Error() string {
	return "bad field " + e.field
}

func TestAs(t *testing.T) {
	wrapped := Wrap(&rosterProblem{field: "node_id"}, "validate")

	var target *rosterProblem
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "node_id", target.field)
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("roster invalid"), "run hansard roster validate")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "run hansard roster validate", hints[0])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("node %s", "mp_x"), IsNotFoundError},
		{"invalid request", NewInvalidRequestError("empty alias"), IsInvalidRequestError},
		{"conflict", NewConflictError("submission %s already approved", "abc"), IsConflictError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(Wrap(tt.err, "outer")))
			assert.False(t, tt.check(New("unrelated")))
			assert.False(t, tt.check(nil))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFoundError("node %s", "mp_x")
	assert.Equal(t, "node mp_x: not found", err.Error())
}

func ExampleWrap() {
	baseErr := New("no such file")
	err := Wrap(baseErr, "failed to read transcript")
	fmt.Println(err)
	// Output: failed to read transcript: no such file
}
