package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/page_definition.json
var pageDefinitionSchema []byte

const structuredExt = ".json"

// StructuredCodec stores definitions as JSON documents validated against an
// embedded schema.
type StructuredCodec struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewStructuredCodec returns a JSON codec.
func NewStructuredCodec() *StructuredCodec {
	return &StructuredCodec{}
}

func (c *StructuredCodec) Name() string {
	return "structured"
}

func (c *StructuredCodec) ObjectName(path string) string {
	return pagedef.NormalizePath(path) + structuredExt
}

func (c *StructuredCodec) TemplatePath(objectName string) (string, bool) {
	name := strings.Trim(objectName, "/")
	if !strings.HasSuffix(name, structuredExt) {
		return "", false
	}
	path := strings.TrimSuffix(name, structuredExt)
	return path, path != ""
}

func (c *StructuredCodec) Encode(def pagedef.PageDefinition) ([]byte, error) {
	normalized := normalize(def)
	if normalized.Path == "" {
		return nil, fmt.Errorf("%w: %w", ErrEncode, pagedef.ErrPathRequired)
	}
	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return append(data, '\n'), nil
}

func (c *StructuredCodec) Decode(data []byte) (pagedef.PageDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return pagedef.PageDefinition{}, &DecodeError{Codec: c.Name(), Reason: "empty document"}
	}
	if err := c.validate(data); err != nil {
		return pagedef.PageDefinition{}, err
	}
	var def pagedef.PageDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return pagedef.PageDefinition{}, &DecodeError{Codec: c.Name(), Err: err}
	}
	return normalize(def), nil
}

func (c *StructuredCodec) validate(data []byte) error {
	schema, err := c.compiled()
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return &DecodeError{Codec: c.Name(), Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &DecodeError{Codec: c.Name(), Reason: strings.Join(validationIssues(validationErr), "; ")}
		}
		return &DecodeError{Codec: c.Name(), Err: err}
	}
	return nil
}

func (c *StructuredCodec) compiled() (*jsonschema.Schema, error) {
	c.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("page_definition.json", bytes.NewReader(pageDefinitionSchema)); err != nil {
			c.err = err
			return
		}
		c.schema, c.err = compiler.Compile("page_definition.json")
	})
	return c.schema, c.err
}

func validationIssues(err *jsonschema.ValidationError) []string {
	var issues []string
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "#"
			}
			issues = append(issues, fmt.Sprintf("%s: %s", location, strings.TrimSpace(node.Message)))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
