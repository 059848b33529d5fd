package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sift/internal/errors"
)

// decode maps tool arguments onto a request struct. Failures come back as
// INVALID_REQUEST naming the argument that did not fit.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest("arguments are not valid JSON")
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, argumentError(err)
	}
	return result, nil
}

func argumentError(err error) *errors.SiftError {
	switch e := err.(type) {
	case *json.UnmarshalTypeError:
		field := e.Field
		if field == "" {
			field = "arguments"
		}
		return errors.NewInvalidRequest(fmt.Sprintf("argument %q must be %s, got %s", field, e.Type.Kind(), e.Value))
	default:
		return errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
}
