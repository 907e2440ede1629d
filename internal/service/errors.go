package service

import (
	"errors"

	"pagetrail/internal/repository"
)

func isCorrupt(err error) bool {
	return errors.Is(err, repository.ErrCorrupt)
}
