package core

import "errors"

var (
	// ErrInvalidArgument signals structurally invalid input to Compute.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyDataset is returned when an import contains no data rows.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrNoStartColumn is returned when every row was excluded, which in
	// practice means the start-date column could not be located.
	ErrNoStartColumn = errors.New("no usable start-date column found")

	// ErrNoImport is returned when the persistence slot is empty.
	ErrNoImport = errors.New("no import stored")

	// ErrUnsupportedFormat is returned for files the tabular reader cannot open.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrLegacyWorkbook marks a pre-2007 BIFF (.xls) workbook. It is always
	// joined with ErrUnsupportedFormat.
	ErrLegacyWorkbook = errors.New("legacy xls workbook")

	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNarrativeUnavailable is returned when no narrative generator is configured.
	ErrNarrativeUnavailable = errors.New("narrative generator unavailable")
)
