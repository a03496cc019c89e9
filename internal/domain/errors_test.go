package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{fmt.Errorf("item id is required: %w", ErrMissingArgument), KindMissingArgument},
		{fmt.Errorf("bad type: %w", ErrInvalidArgument), KindInvalidArgument},
		{fmt.Errorf("item x: %w", ErrNotFound), KindNotFound},
		{fmt.Errorf("owner mismatch: %w", ErrAccessDenied), KindAccessDenied},
		{fmt.Errorf("failed to insert: %w: %w", ErrStoreFailure, errors.New("connection reset")), KindStoreFailure},
		{errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err))
	}
}
