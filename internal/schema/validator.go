// Package schema validates catalog-exported application definitions before
// the loader accepts them.
package schema

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const catalogSchemaURI = "reefctl://catalog/schema.json"

// Catalog exports are produced by the platform UI; the schema pins down only
// what the loader and payload builders rely on.
const catalogSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["app_name"],
  "properties": {
    "app_name": {"type": "string", "minLength": 1},
    "catalog_app": {"type": "string"},
    "train": {"type": "string"},
    "version": {"type": "string"},
    "values": {"type": "object"}
  }
}`

var compiled = mustCompile()

func mustCompile() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(catalogSchemaURI, strings.NewReader(catalogSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(catalogSchemaURI)
}

// ValidateCatalog checks a parsed catalog document against the embedded
// schema. The document must already be in normalized map[string]any form.
func ValidateCatalog(doc any) error {
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("catalog definition invalid: %w", err)
	}
	return nil
}
