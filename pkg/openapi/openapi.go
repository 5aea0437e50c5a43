// Package openapi derives wizard steps from OpenAPI 3 documents: one step
// per operation, one control per request-body property. It covers the flat
// object schemas that configuration endpoints use; nested objects and arrays
// of objects are skipped rather than flattened.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-wizard/pkg/model"
)

// Option configures the importer.
type Option func(*importer)

// WithExternalRefs allows resolving references outside the document.
func WithExternalRefs() Option {
	return func(i *importer) { i.externalRefs = true }
}

type importer struct {
	externalRefs bool
}

// OperationNotFoundError reports a missing operationId.
type OperationNotFoundError struct {
	OperationID string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("openapi: operation %q not found", e.OperationID)
}

// Operations lists the operationIds present in the document, sorted.
func Operations(ctx context.Context, data []byte, options ...Option) ([]string, error) {
	spec, err := load(ctx, data, options...)
	if err != nil {
		return nil, err
	}
	var out []string
	if spec.Paths != nil {
		for _, item := range spec.Paths.Map() {
			if item == nil {
				continue
			}
			for _, operation := range item.Operations() {
				if operation != nil && operation.OperationID != "" {
					out = append(out, operation.OperationID)
				}
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// StepFromOperation derives a wizard step from the request body of the named
// operation. The step is named after the operationId; its controls come from
// the body's top-level properties with the schema's constraints attached.
func StepFromOperation(ctx context.Context, data []byte, operationID string, options ...Option) (model.Step, error) {
	spec, err := load(ctx, data, options...)
	if err != nil {
		return model.Step{}, err
	}

	operation := findOperation(spec, operationID)
	if operation == nil {
		return model.Step{}, &OperationNotFoundError{OperationID: operationID}
	}

	step, err := model.NewStep(operationID,
		model.WithTitle(strings.TrimSpace(operation.Summary)),
		model.WithStepDescription(strings.TrimSpace(operation.Description)),
	)
	if err != nil {
		return model.Step{}, err
	}

	schema := requestSchema(operation)
	if schema == nil {
		return step, nil
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, isRequired := required[name]
		control, ok, err := controlFromSchema(name, ref.Value, isRequired)
		if err != nil {
			return model.Step{}, err
		}
		if !ok {
			continue
		}
		step.Controls = append(step.Controls, control)
	}
	return step, nil
}

func load(ctx context.Context, data []byte, options ...Option) (*openapi3.T, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	imp := &importer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(imp)
	}
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: imp.externalRefs,
	}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return spec, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation != nil && operation.OperationID == operationID {
				return operation
			}
		}
	}
	return nil
}

func requestSchema(operation *openapi3.Operation) *openapi3.Schema {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}
	content := operation.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// controlFromSchema maps one property schema to a control. ok is false for
// shapes the wizard model cannot represent.
func controlFromSchema(name string, schema *openapi3.Schema, required bool) (model.Control, bool, error) {
	options := []model.ControlOption{
		model.WithLabel(strings.TrimSpace(schema.Title)),
		model.WithHelp(strings.TrimSpace(schema.Description)),
	}
	if required {
		options = append(options, model.Required())
	}
	if schema.Default != nil {
		options = append(options, model.WithDefault(normalizeDefault(schema.Default)))
	}

	var typ model.ControlType
	switch {
	case typeIs(schema, openapi3.TypeString):
		if len(schema.Enum) > 0 {
			typ = model.ControlTypeSelect
			options = append(options, model.WithOptions(enumStrings(schema.Enum)...))
		} else {
			typ = model.ControlTypeString
			if schema.Pattern != "" {
				options = append(options, model.WithPattern(schema.Pattern))
			}
			options = append(options, model.WithLengthRange(lengthBounds(schema)))
			if schema.Format == "password" {
				options = append(options, model.Secret())
			}
		}
	case typeIs(schema, openapi3.TypeBoolean):
		typ = model.ControlTypeBoolean
	case typeIs(schema, openapi3.TypeInteger):
		typ = model.ControlTypeInteger
		options = append(options, model.WithRange(numericBounds(schema)))
	case typeIs(schema, openapi3.TypeNumber):
		typ = model.ControlTypeNumber
		options = append(options, model.WithRange(numericBounds(schema)))
	case typeIs(schema, openapi3.TypeArray):
		items := itemsSchema(schema)
		if items == nil || !typeIs(items, openapi3.TypeString) || len(items.Enum) == 0 {
			return model.Control{}, false, nil
		}
		typ = model.ControlTypeMultiSelect
		options = append(options, model.WithOptions(enumStrings(items.Enum)...))
	default:
		return model.Control{}, false, nil
	}

	control, err := model.NewControl(name, typ, options...)
	if err != nil {
		return model.Control{}, false, fmt.Errorf("openapi: property %q: %w", name, err)
	}
	return control, true, nil
}

func typeIs(schema *openapi3.Schema, typ string) bool {
	return schema.Type != nil && schema.Type.Is(typ)
}

func itemsSchema(schema *openapi3.Schema) *openapi3.Schema {
	if schema.Items == nil {
		return nil
	}
	return schema.Items.Value
}

func enumStrings(enum []any) []string {
	out := make([]string, 0, len(enum))
	for _, value := range enum {
		if s, ok := value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func numericBounds(schema *openapi3.Schema) (*float64, *float64) {
	var min, max *float64
	if schema.Min != nil {
		v := *schema.Min
		min = &v
	}
	if schema.Max != nil {
		v := *schema.Max
		max = &v
	}
	return min, max
}

func lengthBounds(schema *openapi3.Schema) (*int, *int) {
	var min, max *int
	if schema.MinLength > 0 {
		v := int(schema.MinLength)
		min = &v
	}
	if schema.MaxLength != nil {
		v := int(*schema.MaxLength)
		max = &v
	}
	return min, max
}

// normalizeDefault converts JSON decode artifacts into the value kinds the
// model accepts, e.g. float64 for integers stays as-is since CheckValue
// accepts whole floats.
func normalizeDefault(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return value
	}
}
