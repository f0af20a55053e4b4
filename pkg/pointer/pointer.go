package pointer

import "time"

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringOrNil returns nil for the empty string
func StringOrNil(value string) *string {
	if len(value) == 0 {
		return nil
	}
	return &value
}

// Time returns a pointer to the provided time value
func Time(value time.Time) *time.Time {
	return &value
}
