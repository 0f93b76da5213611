package service

import "errors"

// Messages surfaced to clients.
const (
	MsgInvalidStatusFormat = "Invalid data format. Must include 'energy_available_kW' and 'battery_capacity_kW'."
	MsgNoData              = "No data available"
	MsgNoValidData         = "No valid battery data available."
	MsgInvalidDelta        = "Invalid time delta format. Use formats like '1d', '2h', or '30m'."
	MsgMissingColumns      = "CSV file must include 'Timestamp', 'Battery_Level', and 'Battery_Capacity_kW' columns."
)

// Error kinds reported in logs and metrics.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindSourceFormat = "source_format"
	KindInternal     = "internal"
)

// ValidationError reports client input that cannot be accepted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports that the reading log holds nothing to answer with.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// SourceFormatError reports an external data file that does not have the expected shape.
type SourceFormatError struct {
	Message string
	Err     error
}

func (e *SourceFormatError) Error() string { return e.Message }

func (e *SourceFormatError) Unwrap() error { return e.Err }

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		source     *SourceFormatError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &source):
		return KindSourceFormat
	default:
		return KindInternal
	}
}
