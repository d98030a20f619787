package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsRoot(t *testing.T) {
	req := require.New(t)

	err := Wrapf(ErrAlreadyFinalized, "request %d", 7)
	err = Wrap(err, "process transfer request")

	req.True(ErrAlreadyFinalized.Is(err))
	req.False(ErrAlreadyExecuted.Is(err))
	req.True(stderrors.Is(err, ErrAlreadyFinalized))
	req.Equal("process transfer request: request 7: already finalized", err.Error())
	req.Equal(ClassStateConflict, ClassOf(err))
	req.Equal(uint32(12), CodeOf(err))
}

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil, "nothing"))
}

func TestClassOfForeignError(t *testing.T) {
	req := require.New(t)

	err := fmt.Errorf("boom")
	req.Equal(ClassInternal, ClassOf(err))
	req.Equal(uint32(1), CodeOf(err))
	req.Nil(Root(err))
}

func TestNotASignerFlavours(t *testing.T) {
	req := require.New(t)

	req.Equal(ClassAuthorization, ClassOf(ErrNotASigner.New("submit")))
	req.Equal(ClassNotFound, ClassOf(ErrUnknownSigner.New("remove")))
	req.Equal(ErrNotASigner.Error(), ErrUnknownSigner.Error())
}

func TestRegisterDuplicateCode(t *testing.T) {
	defer func() {
		require.NotNil(t, recover())
	}()
	Register(2, ClassInternal, "duplicate")
}

func TestIsNilKind(t *testing.T) {
	var kind *Error
	req := require.New(t)
	req.True(kind.Is(nil))
	req.False(kind.Is(ErrInternal))
}

func TestRootThroughStdlibWrap(t *testing.T) {
	req := require.New(t)

	err := fmt.Errorf("failed to confirm: %w", ErrAlreadyConfirmed.New("operation 3"))
	req.True(ErrAlreadyConfirmed.Is(err))
	req.Equal(ClassStateConflict, ClassOf(err))
	req.Equal(uint32(10), CodeOf(err))
}
