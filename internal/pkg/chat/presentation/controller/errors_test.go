package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{appErrors.ErrMissingUser, http.StatusBadRequest},
		{appErrors.ErrConversationNotFound, http.StatusNotFound},
		{appErrors.ErrNotParticipant, http.StatusForbidden},
		{appErrors.ErrNotMessageSender, http.StatusForbidden},
		{appErrors.ErrNotEditable, http.StatusUnprocessableEntity},
		{appErrors.ErrStoreUnavailable(assert.AnError), http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), "error: %v", tc.err)
	}
}
