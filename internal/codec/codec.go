package codec

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
)

// Codec translates a page definition to and from its durable form.
type Codec interface {
	Name() string
	// ObjectName maps a template path to the storage key holding the artifact.
	ObjectName(path string) string
	// TemplatePath reverses ObjectName, reporting false for keys the codec does not own.
	TemplatePath(objectName string) (string, bool)
	Encode(def pagedef.PageDefinition) ([]byte, error)
	Decode(data []byte) (pagedef.PageDefinition, error)
}

// Splicer is implemented by codecs that can update an existing artifact in
// place, preserving content they do not own.
type Splicer interface {
	Splice(existing []byte, def pagedef.PageDefinition) ([]byte, error)
}

var (
	ErrDecode = errors.New("codec: malformed template content")
	ErrEncode = errors.New("codec: encode failed")
)

// DecodeError reports malformed durable content. Partial results may accompany it.
type DecodeError struct {
	Codec  string
	Field  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("codec: %s decode", e.Codec)
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// IsDecodeError reports whether err came from malformed durable content.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}

// normalize fills empty collections so both codecs emit `{}`/`[]` rather than null.
func normalize(def pagedef.PageDefinition) pagedef.PageDefinition {
	out := pagedef.Clone(def)
	out.Path = pagedef.NormalizePath(out.Path)
	if out.CSSClassName == "" {
		out.CSSClassName = pagedef.ClassName(out.Path)
	}
	if out.ContentOverrides == nil {
		out.ContentOverrides = pagedef.ContentOverrides{}
	}
	if out.Instances == nil {
		out.Instances = []pagedef.ComponentInstance{}
	}
	if out.ElementProps == nil {
		out.ElementProps = pagedef.ElementProps{}
	}
	return out
}
