package services

import (
	"errors"

	"genbea/internal/files"
)

// Dashboard service errors
var (
	// ErrNoData is returned when the data directory holds no workbook files.
	ErrNoData = errors.New("no workbook files available")

	// Selection errors share the catalog sentinels so either can be matched.
	ErrUnknownYear   = files.ErrUnknownYear
	ErrUnknownPeriod = files.ErrUnknownPeriod

	// ErrMissingPrimarySheet is returned when a loaded workbook lacks the
	// sample status sheet.
	ErrMissingPrimarySheet = errors.New("primary sheet not found")

	// ErrChartUnavailable is returned when a chart cannot be drawn for the
	// current view: the mode does not offer it, its sheet or columns are
	// missing, or nothing is left to plot.
	ErrChartUnavailable = errors.New("chart not available for this view")
)
