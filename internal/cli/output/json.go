package output

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFormatter formats data as JSON.
type JSONFormatter struct {
	Indent string
}

// Format writes data as JSON followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(data)
}

// compact renders v as single-line JSON for table cells.
func compact(v any) string {
	s, err := json.MarshalToString(v)
	if err != nil {
		return "<invalid>"
	}
	return s
}
