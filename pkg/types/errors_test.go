package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorIs(t *testing.T) {
	cause := errors.New("disk I/O error")
	tests := []struct {
		name    string
		kind    ErrorKind
		matches error
		misses  []error
	}{
		{"storage", KindStorage, ErrStorage, []error{ErrConstraint, ErrInitialization}},
		{"constraint", KindConstraint, ErrConstraint, []error{ErrStorage, ErrInitialization}},
		{"init", KindInit, ErrInitialization, []error{ErrStorage, ErrConstraint}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &StoreError{Op: "save project", Kind: tt.kind, Err: cause})
			assert.ErrorIs(t, err, tt.matches)
			assert.ErrorIs(t, err, cause)
			for _, other := range tt.misses {
				assert.NotErrorIs(t, err, other)
			}

			var se *StoreError
			assert.True(t, errors.As(err, &se))
			assert.Equal(t, "save project", se.Op)
		})
	}
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Op: "load project", Kind: KindStorage, Err: errors.New("boom")}
	assert.Equal(t, "load project: storage: boom", err.Error())
}
