package options

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema pins down only the catalogue's skeleton. Field values are decoded
// leniently by TextField and TopicRef, so one odd record cannot reject the whole payload.
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "topics": {
      "type": "array",
      "items": {"type": "object", "required": ["id"]}
    },
    "subtopics": {
      "type": "array",
      "items": {"type": "object"}
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	if err != nil {
		panic(fmt.Sprintf("compile options schema: %v", err))
	}
	return s
}

// Validate checks a raw catalogue body against the payload schema.
func Validate(body []byte) error {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validate options payload: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("options payload does not match schema: %s", strings.Join(msgs, "; "))
}
