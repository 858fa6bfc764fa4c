package controller

import (
	"fmt"
	"strconv"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func transientLockErr() error {
	return fmt.Errorf("lock slots: %w", domainErrors.ErrTransientStore)
}
