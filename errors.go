package zsdl

import "fmt"

type (

	// ParseError is returned when no script on the page matches the link
	// template, or a captured field fails literal or arithmetic evaluation.
	ParseError struct {
		Reason string
	}

	// StatusError is returned when a response status does not match the
	// expected one.
	StatusError struct {
		Code     int
		Expected int
	}

	// SizeError is returned when the downloaded size does not match the
	// server reported total.
	SizeError struct {
		Size     int64
		Expected int64
	}

	// ExistsError is returned when a destination path already exists.
	ExistsError struct {
		Path string
	}
)

func (e *ParseError) Error() string {
	return "parse storage: " + e.Reason
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("invalid status code: %d expected: %d", e.Code, e.Expected)
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("unexpected download size: %d expected: %d", e.Size, e.Expected)
}

func (e *ExistsError) Error() string {
	return "already exists: " + e.Path
}
