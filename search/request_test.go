package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestNormalize(t *testing.T) {
	req := Request{UserID: "u1", Labels: []string{"b", "", "a", "b"}}.normalize()
	assert.Equal(t, []string{"b", "a"}, req.Labels)

	req = Request{UserID: "u1", Labels: []string{""}}.normalize()
	assert.Nil(t, req.Labels)
}

func TestRequestValidate_Order(t *testing.T) {
	// a missing user wins over missing criteria
	err := Request{}.Validate()
	require.Error(t, err)

	var invalid *InvalidRequestError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, MsgUserRequired, invalid.Message)
	assert.Equal(t, MsgUserRequired, err.Error())
}

func TestErrors(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&StoreError{Kind: "note", Err: cause})

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, errors.Is(&InvalidRequestError{Message: MsgQueryTooShort}, ErrStoreFailure))
}
