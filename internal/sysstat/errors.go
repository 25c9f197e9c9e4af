package sysstat

import "errors"

var (
	// ErrNoData is returned by read operations before a document was parsed.
	ErrNoData = errors.New("no data")

	// ErrAlreadyParsed is returned by Convert on a converter that already holds a document.
	ErrAlreadyParsed = errors.New("capture already converted")

	// ErrNoHost is returned when a document carries no host record.
	ErrNoHost = errors.New("capture document has no host record")

	// ErrUnsupportedPath is returned for metric paths that are not 2, 3 or 4 segments.
	ErrUnsupportedPath = errors.New("unsupported path shape")

	// ErrUnknownDevice is returned when no device-identifier field is known for a category.
	ErrUnknownDevice = errors.New("unknown device category")

	// ErrMetricNotFound is returned when a category, device or metric is absent.
	ErrMetricNotFound = errors.New("metric not found")

	// ErrShapeMismatch is returned when content does not have the shape the path implies.
	ErrShapeMismatch = errors.New("unexpected content shape")

	// ErrSeriesMisaligned is returned by Series when a path does not yield
	// exactly one value per DataPoint.
	ErrSeriesMisaligned = errors.New("metric values do not align with samples")
)
