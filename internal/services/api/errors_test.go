package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"chow-down/internal/chow"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		errs chow.Errors
		want int
	}{
		{"not found", chow.NotFound("gone"), http.StatusNotFound},
		{"bad request", chow.BadReq("nope"), http.StatusBadRequest},
		{"storage failure", chow.DBErr("boom"), http.StatusInternalServerError},
		{"internal failure", chow.Internal("boom"), http.StatusInternalServerError},
		{"unrecognized code", chow.Errors{{Message: "odd", Code: "WEIRD"}}, http.StatusBadRequest},
		{
			"server error dominates batch",
			append(chow.NotFound("gone"), chow.DBErr("boom")...),
			http.StatusInternalServerError,
		},
		{
			"first recognized code wins otherwise",
			append(chow.NotFound("gone"), chow.BadReq("nope")...),
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.errs))
		})
	}
}
