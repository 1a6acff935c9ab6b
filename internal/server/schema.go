package server

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// fuseRequestSchema is the wire contract for POST /api/fuse.
const fuseRequestSchema = `{
	"type": "object",
	"properties": {
		"input": {
			"type": "string",
			"minLength": 1,
			"maxLength": 32768
		}
	},
	"required": ["input"],
	"additionalProperties": false
}`

var fuseSchema = gojsonschema.NewStringLoader(fuseRequestSchema)

// validateFuseRequest returns an empty string when the body conforms to the
// request schema, otherwise a semicolon-joined list of violations.
func validateFuseRequest(body []byte) string {
	result, err := gojsonschema.Validate(fuseSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err.Error()
	}
	if result.Valid() {
		return ""
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
