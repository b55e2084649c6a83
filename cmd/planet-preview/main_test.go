package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestParseViewpoint(t *testing.T) {
	vp, err := parseViewpoint("1, -2.5,4010")
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{1, -2.5, 4010}, vp)

	_, err = parseViewpoint("1,2")
	require.Error(t, err)
	_, err = parseViewpoint("1,b,3")
	require.Error(t, err)
}
