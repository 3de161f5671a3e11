package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/glorpus-work/hdrget/pkg/errors"
)

// SetValue sets a configuration value by its YAML key. Durations accept
// time.ParseDuration syntax such as "30s" or "10m".
func (c *Config) SetValue(key, value string) error {
	field, ok := c.settingsField(key)
	if !ok {
		return errors.ErrUnknownConfigKeyWithName(key)
	}

	switch field.Interface().(type) {
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return errors.Wrapf(errors.ErrConfigValidation, "invalid duration for %s: %s", key, value)
		}
		field.SetInt(int64(d))
	case string:
		field.SetString(value)
	default:
		return fmt.Errorf("unsupported setting type for %s", key)
	}
	return nil
}

// GetValue returns a configuration value by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	field, ok := c.settingsField(key)
	if !ok {
		return "", errors.ErrUnknownConfigKeyWithName(key)
	}
	return formatField(field), nil
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	t := reflect.TypeOf(Settings{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := yamlKey(t.Field(i)); key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ToMap returns every setting keyed by its YAML name.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		key := yamlKey(settingsType.Field(i))
		if key == "" {
			continue
		}
		result[key] = formatField(settingsValue.Field(i))
	}

	return result
}

func (c *Config) settingsField(key string) (reflect.Value, bool) {
	settingsValue := reflect.ValueOf(&c.Settings).Elem()
	settingsType := settingsValue.Type()
	for i := 0; i < settingsValue.NumField(); i++ {
		if yamlKey(settingsType.Field(i)) == key {
			return settingsValue.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func yamlKey(field reflect.StructField) string {
	tag := field.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func formatField(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}
