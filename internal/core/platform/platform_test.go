package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	for _, code := range []string{"xhs", "dy", "ks", "bili", "wb", "tieba", "zhihu"} {
		require.True(t, Supported(code), code)
	}
	require.False(t, Supported("myspace"))
	require.False(t, Supported(""))
	require.False(t, Supported("XHS"))
}

func TestCodesMatchList(t *testing.T) {
	list := List()
	codes := Codes()
	require.Len(t, codes, len(list))
	for i, p := range list {
		require.Equal(t, p.Code, codes[i])
	}
}

func TestListIsACopy(t *testing.T) {
	List()[0].Code = "mutated"
	require.Equal(t, "xhs", List()[0].Code)
}
