package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMouseLocation(t *testing.T) {
	x, y, err := parseMouseLocation("X=812\nY=440\nSCREEN=0\nWINDOW=62914567\n")
	require.NoError(t, err)
	require.Equal(t, 812, x)
	require.Equal(t, 440, y)

	_, _, err = parseMouseLocation("garbage")
	require.Error(t, err)
}
