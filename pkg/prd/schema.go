package prd

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Schema returns the JSON schema of the compiled document
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&Document{})
	s.Title = "prd.json"
	s.Description = "Compiled user stories with preserved execution state"
	return s
}

// SchemaJSON renders Schema as indented JSON
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}
	return append(data, '\n'), nil
}
