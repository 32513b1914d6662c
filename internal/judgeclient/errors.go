package judgeclient

import (
	"fmt"

	"github.com/spf13/cast"
)

// APIError is a reply whose envelope code is not zero.
type APIError struct {
	Path string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: judge error code %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s: judge error code %d: %s", e.Path, e.Code, e.Msg)
}

func envelopeCode(raw any) (int, error) {
	if raw == nil {
		return 0, nil
	}
	return cast.ToIntE(raw)
}
