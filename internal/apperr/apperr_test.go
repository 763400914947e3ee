package apperr

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := NotFound("quiz.Get", "quiz %s not found", "q1")
	wrapped := fmt.Errorf("handler: %w", base)

	require.Equal(t, KindNotFound, KindOf(wrapped))
	require.True(t, Is(wrapped, KindNotFound))
	require.Equal(t, "quiz q1 not found", Message(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(sql.ErrConnDone))
	require.False(t, Is(nil, KindInternal))
}

func TestStoreKeepsDomainKinds(t *testing.T) {
	domain := Forbidden("quiz.Update", "you do not have permission to update this quiz")
	require.Same(t, domain, Store("tx", domain))

	err := Store("quiz.Create", sql.ErrConnDone)
	require.Equal(t, KindStore, KindOf(err))
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.Nil(t, Store("noop", nil))
}
