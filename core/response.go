package core

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Header is the decoded header of an API envelope. Fields holds every header
// field as received, including status and statusmessage.
type Header struct {
	Status        Status
	StatusMessage string
	Fields        map[string]any
}

// Bool returns a boolean header field; non-boolean values report false.
func (h Header) Bool(name string) bool {
	value, ok := h.Fields[name].(bool)
	return ok && value
}

// Number returns a numeric header field.
func (h Header) Number(name string) (float64, bool) {
	value, ok := h.Fields[name].(float64)
	return value, ok
}

// Response wraps a single API reply. It is valid when the header decoded and
// a body field was present, even if that body is null.
type Response struct {
	raw         []byte
	header      *Header
	body        json.RawMessage
	bodyPresent bool

	FromCache bool
	CacheAge  time.Duration
	Err       error
}

// ParseResponse builds a response from a transport result.
func ParseResponse(raw []byte, transportErr error) *Response {
	resp := &Response{CacheAge: MissingAge}
	if transportErr != nil {
		resp.Err = NetworkFailure(transportErr, "core: request failed")
		return resp
	}
	resp.raw = append([]byte(nil), raw...)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope == nil {
		if err == nil {
			err = fmt.Errorf("response is not a json object")
		}
		resp.Err = NetworkFailure(err, "core: response is not valid json")
		return resp
	}

	headerRaw, ok := envelope["header"]
	if !ok {
		return resp
	}
	header, err := decodeHeader(headerRaw)
	if err != nil {
		resp.Err = DecodeFailure(err, "core: invalid response header")
		return resp
	}
	resp.header = header
	resp.body, resp.bodyPresent = envelope["body"]
	return resp
}

// ErrorResponse builds an invalid response carrying err.
func ErrorResponse(err error) *Response {
	return &Response{CacheAge: MissingAge, Err: err}
}

func decodeHeader(raw json.RawMessage) (*Header, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("header is not an object")
	}
	statusValue, ok := fields["status"]
	if !ok {
		return nil, fmt.Errorf("missing key status in header")
	}
	status, ok := statusValue.(float64)
	if !ok || status != float64(int(status)) {
		return nil, fmt.Errorf("type mismatch in header: status is not an integer")
	}
	messageValue, ok := fields["statusmessage"]
	if !ok {
		return nil, fmt.Errorf("missing key statusmessage in header")
	}
	message, ok := messageValue.(string)
	if !ok {
		return nil, fmt.Errorf("type mismatch in header: statusmessage is not a string")
	}
	return &Header{
		Status:        Status(int(status)),
		StatusMessage: message,
		Fields:        fields,
	}, nil
}

func (r *Response) Header() (Header, bool) {
	if r == nil || r.header == nil {
		return Header{}, false
	}
	return *r.header, true
}

// Status returns StatusUnknown when the header is missing.
func (r *Response) Status() Status {
	if r == nil || r.header == nil {
		return StatusUnknown
	}
	return r.header.Status
}

func (r *Response) StatusMessage() string {
	if r == nil || r.header == nil {
		return ""
	}
	return r.header.StatusMessage
}

func (r *Response) Valid() bool {
	return r != nil && r.header != nil && r.bodyPresent
}

func (r *Response) Success() bool {
	return r.Valid() && r.header.Status == StatusOK
}

func (r *Response) Cacheable() bool {
	return r.Success() && r.header.Bool("cacheable")
}

// Body returns the raw body. It is nil when absent and "null" when the API
// sent an explicit null.
func (r *Response) Body() json.RawMessage {
	if r == nil || !r.bodyPresent {
		return nil
	}
	return r.body
}

// Raw returns the payload as received, used for caching.
func (r *Response) Raw() []byte {
	if r == nil {
		return nil
	}
	return r.raw
}

// BodyValidator is implemented by body types with required fields.
type BodyValidator interface {
	ValidateBody() error
}

// DecodeBody decodes the body of a valid response into T.
func DecodeBody[T any](resp *Response) (T, bool) {
	out, err := decodeBody[T](resp)
	return out, err == nil
}

func decodeBody[T any](resp *Response) (T, error) {
	var out T
	if !resp.Valid() {
		return out, DecodeFailure(nil, "core: response is not valid")
	}
	body := bytes.TrimSpace(resp.body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return out, DecodeFailure(nil, "core: response body is null")
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, DecodeFailure(err, "core: response body does not match expected shape")
	}
	if err := validateBody(out); err != nil {
		return out, DecodeFailure(err, "core: response body does not match expected shape")
	}
	return out, nil
}

func validateBody(value any) error {
	switch typed := value.(type) {
	case BodyValidator:
		return typed.ValidateBody()
	case []RoleInActor:
		for i := range typed {
			if err := typed[i].ValidateBody(); err != nil {
				return fmt.Errorf("role %d: %w", i, err)
			}
		}
	}
	return nil
}

// ResponseError describes why a response was not a success; nil otherwise.
func ResponseError(resp *Response) error {
	switch {
	case resp == nil:
		return NetworkFailure(nil, "core: no response")
	case resp.Success():
		return nil
	case resp.Err != nil:
		return resp.Err
	case !resp.Valid():
		return DecodeFailure(nil, "core: response envelope is invalid")
	default:
		return APIError(resp.header.Status, resp.header.StatusMessage)
	}
}
