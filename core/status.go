package core

import "strconv"

// Status is the numeric status code carried in a response header.
type Status int

const (
	StatusUnknown             Status = -1
	StatusOK                  Status = 0
	StatusInternalError       Status = 1
	StatusTimestampOutOfRange Status = 2
	StatusAuthenticationFail  Status = 3
	StatusAccessDenied        Status = 4
	StatusInvalidAction       Status = 5
	StatusInputError          Status = 6
	StatusUnknownParameter    Status = 7
	StatusRateLimited         Status = 8
	StatusInvalidTimezone     Status = 9
	StatusAPIReadonly         Status = 10
	StatusInvalidActionType   Status = 90
)

var statusNames = map[Status]string{
	StatusUnknown:             "unknown",
	StatusOK:                  "ok",
	StatusInternalError:       "internal_error",
	StatusTimestampOutOfRange: "timestamp_out_of_range",
	StatusAuthenticationFail:  "authentication_failed",
	StatusAccessDenied:        "access_denied",
	StatusInvalidAction:       "invalid_action",
	StatusInputError:          "input_error",
	StatusUnknownParameter:    "unknown_parameter",
	StatusRateLimited:         "rate_limited",
	StatusInvalidTimezone:     "invalid_timezone",
	StatusAPIReadonly:         "api_in_readonly_mode",
	StatusInvalidActionType:   "invalid_action_type",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status_" + strconv.Itoa(int(s))
}

// Known reports whether the code is one of the general API codes. Actions
// may return their own codes outside this table.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}
