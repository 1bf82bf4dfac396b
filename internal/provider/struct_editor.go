package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/zjrosen/rulebook/internal/log"
)

// StructEditor edits providers that are pointers to structs.
// Fields are addressed by their json tag name, decoded with weak typing
// ("8" sets an int) and checked against `validate` struct tags. A failed
// decode or validation restores the previous field values.
type StructEditor struct {
	validate *validator.Validate
}

// NewStructEditor creates a StructEditor. Besides the stock validator tags
// it understands `regexp`, which requires a string that compiles.
func NewStructEditor() *StructEditor {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f)
	})
	if err := v.RegisterValidation("regexp", validRegexp); err != nil {
		panic(fmt.Sprintf("registering regexp validation: %v", err))
	}
	return &StructEditor{validate: v}
}

func validRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// Fields implements Editor.
func (e *StructEditor) Fields(p Provider) []Field {
	v, ok := structValue(p)
	if !ok {
		return nil
	}

	t := v.Type()
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := jsonName(sf)
		if !sf.IsExported() || name == "" {
			continue
		}
		fields = append(fields, Field{
			Name:     name,
			Value:    fmt.Sprint(v.Field(i).Interface()),
			Required: strings.Contains(sf.Tag.Get("validate"), "required"),
		})
	}
	return fields
}

// Edit implements Editor.
func (e *StructEditor) Edit(p Provider, values map[string]string) (bool, error) {
	v, ok := structValue(p)
	if !ok {
		return false, fmt.Errorf("provider %s is not a struct pointer", p.TypeID())
	}
	if len(values) == 0 {
		return false, nil
	}

	known := make(map[string]bool)
	for _, f := range e.Fields(p) {
		known[f.Name] = true
	}
	input := make(map[string]any, len(values))
	for k, val := range values {
		if !known[k] {
			return false, fmt.Errorf("%w %q for %s (fields: %s)", ErrUnknownField, k, p.TypeID(), strings.Join(sortedKeys(known), ", "))
		}
		input[k] = val
	}

	before, _ := json.Marshal(p)
	saved := reflect.New(v.Type()).Elem()
	saved.Set(v)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return false, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		v.Set(saved)
		return false, fmt.Errorf("decoding fields of %s: %w", p.TypeID(), err)
	}
	if err := e.validate.Struct(p); err != nil {
		v.Set(saved)
		return false, fmt.Errorf("invalid %s fields: %w", p.TypeID(), err)
	}

	after, _ := json.Marshal(p)
	changed := !bytes.Equal(before, after)
	log.Debug(log.CatEditor, "Edited provider fields", "type", p.TypeID(), "changed", changed)
	return changed, nil
}

// Validate runs the struct validation without modifying p.
func (e *StructEditor) Validate(p Provider) error {
	if _, ok := structValue(p); !ok {
		return nil
	}
	return e.validate.Struct(p)
}

func structValue(p Provider) (reflect.Value, bool) {
	if p == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v.Elem(), true
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
