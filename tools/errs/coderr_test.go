package errs

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCodeErrorString(t *testing.T) {
	req := require.New(t)

	e := NewCodeError(http.StatusBadRequest, "invalid request")
	req.Equal("400 invalid request", e.Error())

	d := e.WithDetail("name is required")
	req.Equal("400 invalid request name is required", d.Error())
	// WithDetail copies; the base error stays clean.
	req.Empty(e.Detail)

	d2 := d.WithDetail("and email")
	req.Equal("name is required, and email", d2.Detail)
}

func TestAsCodeError(t *testing.T) {
	req := require.New(t)

	req.Same(ErrInternal, AsCodeError(errors.New("mongo blew up")))

	ce := AsCodeError(ErrNotFound.WithDetail("message not found"))
	req.Equal(http.StatusNotFound, ce.Code)

	wrapped := errors.Wrap(ErrUnauthorized, "during handshake")
	req.Equal(http.StatusUnauthorized, AsCodeError(wrapped).Code)
}
