package runconfig

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Float is a decimal value that keeps the text it was written with, so that
// "1e-3" reaches the training program as "1e-3" and not as "0.001".
type Float string

// FloatOf renders v in its shortest exact form.
func FloatOf(v float64) Float {
	return Float(strconv.FormatFloat(v, 'g', -1, 64))
}

// ParseFloat checks that s is a decimal literal and keeps it verbatim.
func ParseFloat(s string) (Float, error) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("invalid float %q: %w", s, err)
	}
	return Float(s), nil
}

// Value returns the numeric value. The zero Float is 0; an unparsable literal is NaN.
func (f Float) Value() float64 {
	if f == "" {
		return 0
	}
	v, err := strconv.ParseFloat(string(f), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// String returns the literal as passed on the command line.
func (f Float) String() string {
	if f == "" {
		return "0"
	}
	return string(f)
}

var floatType = reflect.TypeOf(Float(""))

// DecodeHook converts config values (YAML numbers, env strings) into Float.
func DecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != floatType {
			return data, nil
		}

		v := reflect.ValueOf(data)
		switch from.Kind() {
		case reflect.String:
			return ParseFloat(v.String())
		case reflect.Float32, reflect.Float64:
			return FloatOf(v.Float()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return Float(strconv.FormatInt(v.Int(), 10)), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Float(strconv.FormatUint(v.Uint(), 10)), nil
		}
		return data, nil
	}
}
