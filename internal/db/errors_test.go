package db

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/movierec/internal/domain"
)

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("database is locked")
	err := error(&Error{Op: OpInsert, Err: cause})

	if err.Error() != "INSERT: database is locked" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected driver error in chain")
	}
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Error("expected ErrStorageUnavailable in chain")
	}
}
