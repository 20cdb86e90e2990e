package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Duration accepts either a Go duration string ("5s", "250ms") or an
// integer amount of milliseconds
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	res, err := ParseDuration(raw)
	if err != nil {
		return err
	}

	*d = res
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	var raw interface{} = node.Value
	if tag := node.ShortTag(); tag == "!!int" || tag == "!!float" {
		ms, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		raw = ms
	}

	res, err := ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*d = res
	return nil
}

// ParseDuration converts a duration string or a number of milliseconds
func ParseDuration(v interface{}) (Duration, error) {
	switch val := v.(type) {
	case Duration:
		return val, nil
	case string:
		res, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return Duration(res), nil
	case int:
		return Duration(time.Duration(val) * time.Millisecond), nil
	case int64:
		return Duration(time.Duration(val) * time.Millisecond), nil
	case float64:
		return Duration(time.Duration(val * float64(time.Millisecond))), nil
	default:
		return 0, fmt.Errorf("invalid duration %v", v)
	}
}

var durationType = reflect.TypeOf(Duration(0))

// durationHook lets mapstructure decode directive arguments into Duration
func durationHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType {
			return data, nil
		}
		return ParseDuration(data)
	}
}
