package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"

	appErrors "github.com/charlesng35/rasconsole/pkg/errors"
)

// Envelope is the generic reply shape of the remote API:
// {"success": bool, "error": "message", ...payload}. Payload keys live at the top level
// next to success/error, so the raw map is kept for typed decoding.
type Envelope struct {
	Success bool
	Error   string
	Payload map[string]any
}

// Parse decodes a raw reply body. A body that is not a JSON object or lacks the success
// flag is reported as a transport-level failure.
func Parse(body []byte) (*Envelope, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("response: decode envelope: %w", err)
	}

	success, ok := raw["success"].(bool)
	if !ok {
		return nil, errors.New("response: envelope has no success flag")
	}

	env := &Envelope{Success: success, Payload: raw}
	env.Error = errorText(raw["error"])
	if env.Error == "" {
		env.Error = errorText(raw["message"])
	}
	return env, nil
}

// Err converts a failed envelope into an AppError. Successful envelopes return nil.
func (e *Envelope) Err(statusCode int) error {
	if e == nil || e.Success {
		return nil
	}
	message := e.Error
	if message == "" {
		message = appErrors.ErrRemote.Message
	}
	appErr := appErrors.NewRemote(statusCode, message)
	if dups, ok := e.Payload["duplicates"]; ok {
		appErr = appErrors.ErrDuplicate.WithMessage(message).WithDetails(map[string]any{"duplicates": dups})
	}
	return appErr
}

// Decode copies the payload field key into out. An empty key decodes the whole payload.
func (e *Envelope) Decode(key string, out any) error {
	if e == nil {
		return errors.New("response: nil envelope")
	}
	var input any = e.Payload
	if key != "" {
		value, ok := e.Payload[key]
		if !ok {
			return fmt.Errorf("response: payload has no %q field", key)
		}
		input = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("response: decode %q: %w", key, err)
	}
	return nil
}

// Has reports whether the payload carries key.
func (e *Envelope) Has(key string) bool {
	if e == nil {
		return false
	}
	_, ok := e.Payload[key]
	return ok
}

func errorText(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		if msg, ok := typed["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}

// Success writes a success envelope with payload fields merged at the top level.
func Success(c *gin.Context, statusCode int, payload gin.H) {
	body := gin.H{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	c.JSON(statusCode, body)
}

// Error writes a failure envelope derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternal
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := gin.H{"success": false, "error": appErr.Message}
	for key, value := range appErr.Details {
		body[key] = value
	}
	c.JSON(status, body)
}
