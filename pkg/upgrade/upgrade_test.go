package upgrade

import (
	"testing"

	"github.com/stretchr/testify/require"

	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

func TestAuthorization_OneShot(t *testing.T) {
	req := require.New(t)

	var auth Authorization
	req.True(rtaerrors.ErrUpgradeNotAuthorized.Is(auth.Consume()))

	auth.Grant()
	req.True(auth.Granted())
	req.NoError(auth.Consume())
	req.False(auth.Granted())
	req.True(rtaerrors.ErrUpgradeNotAuthorized.Is(auth.Consume()))
}

func TestAuthorization_Clear(t *testing.T) {
	req := require.New(t)

	var auth Authorization
	auth.Grant()
	auth.Clear()
	req.True(rtaerrors.ErrUpgradeNotAuthorized.Is(auth.Consume()))
}
