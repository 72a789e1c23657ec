package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APITimeLayout is the timestamp layout used by the osu! API (always UTC).
const APITimeLayout = "2006-01-02 15:04:05"

// ParseAPITime parses an osu! API timestamp. Empty strings yield the zero time.
func ParseAPITime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(APITimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid api time %q: %w", s, err)
	}
	return t, nil
}

// fieldMaps caches JSON tag -> struct field index mappings per record type
var fieldMaps sync.Map

func getFieldMap(t reflect.Type) map[string]int {
	if cached, ok := fieldMaps.Load(t); ok {
		return cached.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		m[strings.Split(tag, ",")[0]] = i
	}
	fieldMaps.Store(t, m)
	return m
}

// flexUnmarshal decodes data into the struct pointed to by target, accepting
// string-encoded numbers and booleans. The osu! v1 API quotes every value.
func flexUnmarshal(data []byte, target interface{}) error {
	// Fast path: standard unmarshal works when all types match natively
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	v := reflect.ValueOf(target).Elem()
	fieldMap := getFieldMap(v.Type())

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		// Value is a JSON string but target is numeric or bool, coerce it
		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				continue
			}
			if s == "" {
				continue
			}
			if err := coerceStringToField(fv, s); err != nil {
				return fmt.Errorf("flex unmarshal %s: %w", key, err)
			}
		}
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type,
// allocating pointer fields as needed.
func coerceStringToField(fv reflect.Value, s string) error {
	if fv.Kind() == reflect.Ptr {
		elem := reflect.New(fv.Type().Elem())
		if err := coerceStringToField(elem.Elem(), s); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}

	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// ParseFloat handles "28.5" → truncate to int
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.String:
		fv.SetString(s)
	}
	return nil
}

// UnmarshalJSON implements flexible decoding for upstream user records.
func (u *UserData) UnmarshalJSON(data []byte) error {
	type alias UserData
	return flexUnmarshal(data, (*alias)(u))
}

// UnmarshalJSON implements flexible decoding for upstream score records.
func (s *ScoreData) UnmarshalJSON(data []byte) error {
	type alias ScoreData
	return flexUnmarshal(data, (*alias)(s))
}

// UnmarshalJSON implements flexible decoding for upstream beatmap records.
func (b *BeatmapData) UnmarshalJSON(data []byte) error {
	type alias BeatmapData
	return flexUnmarshal(data, (*alias)(b))
}
