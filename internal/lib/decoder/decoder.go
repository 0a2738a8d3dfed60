package decoder

import (
	"movietracker/proj/internal/domain/fields"
	"net/url"
	"reflect"
	"strconv"

	"github.com/gorilla/schema"
)

// URLDecoder fills structs from query strings and form values using `schema` tags.
type URLDecoder struct {
	dec *schema.Decoder
}

func New() *URLDecoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	dec.ZeroEmpty(true)
	dec.RegisterConverter(fields.MovieRuntime(0), convertRuntime)
	return &URLDecoder{dec: dec}
}

// convertRuntime accepts "170" as well as "170 mins".
func convertRuntime(value string) reflect.Value {
	var runtime fields.MovieRuntime
	if err := runtime.UnmarshalJSON([]byte(strconv.Quote(value))); err != nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(runtime)
}

func (d *URLDecoder) IgnoreUnknownKeys(i bool) {
	d.dec.IgnoreUnknownKeys(i)
}

// Decode returns a map of parameter name to message when values can't be converted.
func (d *URLDecoder) Decode(dst any, src url.Values) (map[string]string, error) {
	err := d.dec.Decode(dst, src)
	if err == nil {
		return nil, nil
	}
	multi, ok := err.(schema.MultiError)
	if !ok {
		return nil, err
	}
	fieldErrs := make(map[string]string, len(multi))
	for key, fieldErr := range multi {
		switch e := fieldErr.(type) {
		case schema.ConversionError:
			fieldErrs[key] = "Invalid value for " + e.Key
		case schema.UnknownKeyError:
			fieldErrs[key] = "Unknown parameter"
		case schema.EmptyFieldError:
			fieldErrs[key] = "This field is required"
		default:
			fieldErrs[key] = fieldErr.Error()
		}
	}
	return fieldErrs, nil
}
