// Package config fills service configuration structs from an optional YAML file and the
// process environment.
//
// Environment keys come from `env:"KEY"` tags. Untagged fields get the upper-cased field
// name, prefixed by the enclosing struct's key (`Storage.Driver` reads STORAGE_DRIVER).
// `env:"-"` keeps a field file-only.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the variable holding the YAML file path.
const FileEnv = "CONFIG_FILE"

var durationType = reflect.TypeOf(time.Duration(0))

// binding ties one settable leaf field to its environment key.
type binding struct {
	key   string
	field reflect.Value
}

// LoadConfig fills target (a pointer to a struct) from the file named by CONFIG_FILE, when
// set, and then from the environment. Values already in target act as defaults.
func LoadConfig(target interface{}) error {
	root, err := structValue(target)
	if err != nil {
		return err
	}

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := LoadFile(path, target); err != nil {
			return err
		}
	}

	for _, b := range collectBindings(root, "", nil) {
		raw, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		if err := setField(b.field, strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("config: parse %s: %w", b.key, err)
		}
	}
	return nil
}

// LoadFile decodes the YAML document at path into target. The environment is not consulted.
func LoadFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func structValue(target interface{}) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, errors.New("config: target is nil")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("config: target must be pointer to struct")
	}
	return v.Elem(), nil
}

func collectBindings(v reflect.Value, prefix string, out []binding) []binding {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			out = collectBindings(fv, prefix, out)
			continue
		}

		tag := sf.Tag.Get("env")
		if tag == "-" {
			continue
		}
		key := envKey(prefix, sf.Name)
		if tag != "" {
			key = envKey("", tag)
		}

		if fv.Kind() == reflect.Struct && fv.Type() != durationType {
			out = collectBindings(fv, key, out)
			continue
		}
		out = append(out, binding{key: key, field: fv})
	}
	return out
}

func envKey(prefix, name string) string {
	name = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	bits := field.Type().Bits
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err == nil {
			field.SetBool(b)
		}
		return err
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, bits())
		if err == nil {
			field.SetInt(n)
		}
		return err
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, bits())
		if err == nil {
			field.SetUint(n)
		}
		return err
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, bits())
		if err == nil {
			field.SetFloat(f)
		}
		return err
	}
	return fmt.Errorf("unsupported field type %s", field.Type())
}
