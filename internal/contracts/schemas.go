package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"pricing-service/schemas"
)

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	const schemaURL = "schemas/events/upload-batch/v1.json"
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemas.UploadBatchEventV1)); err != nil {
		log.Fatalf("failed to add schema resource %s: %v", schemaURL, err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		log.Fatalf("failed to compile schema %s: %v", schemaURL, err)
	}

	compiledSchemas["UploadBatchEvent/1.0.0"] = schema
	log.Println("Successfully loaded schema: UploadBatchEvent/1.0.0")
}

// ValidateEvent checks a message body against the schema registered for its
// event type and version headers.
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	key := fmt.Sprintf("%s/%s", eventType, eventVersion)
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema for event '%s' version '%s' not found", eventType, eventVersion)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("message body is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}

	return nil
}
