// Package schemas holds the JSON Schema contracts this service publishes and
// consumes, embedded so validation never depends on the working directory.
package schemas

import _ "embed"

//go:embed events/upload-batch/v1.json
var UploadBatchEventV1 []byte
