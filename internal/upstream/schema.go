package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/fiscal-extract/constants"
)

// scalar accepts what the service emits for a row cell.
var scalar = map[string]any{"type": []string{"string", "number", "null"}}

func rowsProp() map[string]any {
	return map[string]any{
		"type": []string{"array", "null"},
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": scalar,
		},
	}
}

// TaxStatusSchema describes the tax-status answer: one row array per
// section plus optional raw pages and CNPJ.
func TaxStatusSchema() map[string]any {
	props := map[string]any{
		"cnpj":  map[string]any{"type": []string{"string", "null"}},
		"pages": map[string]any{"type": []string{"array", "null"}, "items": map[string]any{"type": "string"}},
	}
	for _, k := range constants.Sections() {
		if k == constants.PaymentDocument {
			continue
		}
		props[k.RowKey()] = rowsProp()
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// PaymentSchema describes the DARF answer: {"data": [...]} or {"error": "..."}.
func PaymentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"data":  rowsProp(),
			"error": map[string]any{"type": []string{"string", "null"}},
		},
		"anyOf": []any{
			map[string]any{"required": []string{"data"}},
			map[string]any{"required": []string{"error"}},
		},
	}
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
