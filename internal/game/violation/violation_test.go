package violation_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/violation"
)

func TestNew_SingleMessage(t *testing.T) {
	err := violation.New(violation.KindInsufficientResource, violation.MsgNotEnoughGold)
	assert.Equal(t, "not enough gold", err.Error())
	assert.Equal(t, []string{"not enough gold"}, err.Messages())
	assert.True(t, err.Has(violation.KindInsufficientResource))
	assert.False(t, err.Has(violation.KindOwnership))
}

func TestAs_UnwrapsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("buying item: %w", violation.New(violation.KindStateConflict, violation.MsgItemAlreadyOwned))
	v, ok := violation.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, []string{violation.MsgItemAlreadyOwned}, v.Messages())
	assert.True(t, violation.Is(wrapped, violation.MsgItemAlreadyOwned))
	assert.False(t, violation.Is(wrapped, violation.MsgNotEnoughGold))
}

func TestAs_PlainError(t *testing.T) {
	_, ok := violation.As(fmt.Errorf("connection refused"))
	assert.False(t, ok)
	assert.False(t, violation.Is(nil, violation.MsgNotEnoughGold))
}

func TestList_EmptyIsNil(t *testing.T) {
	var l violation.List
	assert.NoError(t, l.Err())
}

func TestList_JoinsMessages(t *testing.T) {
	var l violation.List
	l.Add(violation.KindFormat, violation.MsgInvalidName)
	l.Add(violation.KindEligibility, violation.MsgProfessionNotForRace)
	err := l.Err()
	require.Error(t, err)
	assert.Equal(t, "name must be 2-12 latin letters; profession not allowed for race", err.Error())
}

// Property: List.Err preserves every recorded message in order.
func TestList_Property_PreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		msgs := rapid.SliceOfN(rapid.StringMatching(`[a-z ]{1,20}`), 1, 8).Draw(rt, "msgs")
		var l violation.List
		for _, m := range msgs {
			l.Add(violation.KindFormat, m)
		}
		v, ok := violation.As(l.Err())
		if !ok {
			rt.Fatal("expected *violation.Error")
		}
		assert.Equal(rt, msgs, v.Messages())
	})
}
