package svcerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageFormatting(t *testing.T) {
	plain := New(CodeConfiguration, "missing secretRef")
	assert.Equal(t, "CONFIGURATION: missing secretRef", plain.Error())

	wrapped := Wrap(CodeUpstreamUnreachable, "GET /api/cluster", errors.New("connection refused"))
	assert.Equal(t, "UPSTREAM_UNREACHABLE: GET /api/cluster: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := UpstreamUnreachable("paginate", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsAndCodeOf(t *testing.T) {
	err := StateBlobParse("bad json", errors.New("unexpected end of JSON input"))
	assert.True(t, Is(err, CodeStateBlobParse))
	assert.False(t, Is(err, CodeTransientSink))
	assert.Equal(t, CodeStateBlobParse, CodeOf(err))

	assert.Equal(t, CodeInternal, CodeOf(errors.New("not a svcerr")))
}

func TestConstructorHelpers(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want Code
	}{
		{"configuration", Configuration("x", nil), CodeConfiguration},
		{"upstream", UpstreamUnreachable("x", nil), CodeUpstreamUnreachable},
		{"sink", TransientSink("x", nil), CodeTransientSink},
		{"blob", StateBlobParse("x", nil), CodeStateBlobParse},
		{"internal", Internal("x", nil), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Code)
		})
	}
}
