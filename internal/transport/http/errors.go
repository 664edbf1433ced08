package http

import (
	"errors"

	"genbea/internal/charts"
	"genbea/internal/dataset"
	apierrors "genbea/internal/errors"
	"genbea/internal/quality"
	"genbea/internal/services"
)

// mapServiceError translates dashboard service errors into API errors.
// Errors it does not know are returned unchanged: render failures carry
// their own AppError, anything else becomes a 500, or a 504 for expired
// contexts.
func mapServiceError(err error) error {
	var loadErr *dataset.LoadError
	switch {
	case errors.Is(err, services.ErrNoData):
		return apierrors.ErrNoData
	case errors.Is(err, services.ErrUnknownYear), errors.Is(err, services.ErrUnknownPeriod):
		return apierrors.ErrWorkbookNotFound.WithMessage(err.Error())
	case errors.Is(err, services.ErrChartUnavailable):
		return apierrors.ErrNoChartData.WithMessage(err.Error())
	case errors.Is(err, charts.ErrUnknownKind):
		return apierrors.ErrValidation("kind", err.Error())
	case errors.Is(err, quality.ErrUnknownTier):
		return apierrors.ErrValidation("tier", err.Error())
	case errors.Is(err, dataset.ErrFileNotFound):
		return apierrors.ErrWorkbookNotFound.WithMessage("The selected workbook no longer exists")
	case errors.As(err, &loadErr):
		return apierrors.ErrUnreadableWorkbook.
			WithMessage("The selected workbook could not be read").
			WithDetails(map[string]string{"op": loadErr.Op})
	case errors.Is(err, services.ErrMissingPrimarySheet):
		return apierrors.ErrUnreadableWorkbook.WithMessage(err.Error())
	}
	return err
}
