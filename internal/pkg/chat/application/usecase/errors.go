package usecase

import (
	"errors"

	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// mapStoreError passes typed application errors through untouched and folds
// everything else (driver faults, network failures) into UNAVAILABLE so the
// caller can distinguish "don't retry" from "offer retry".
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var app *appErrors.AppError
	if errors.As(err, &app) {
		return err
	}
	return appErrors.ErrStoreUnavailable(err)
}
