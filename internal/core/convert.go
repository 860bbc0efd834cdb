package core

// convert.go turns raw CSV cells into typed column values and back.
//
// Integer hints are strict: a missing or out-of-range value in an integer
// column cannot be represented and is reported as a load error. Float,
// categorical and text columns accept the usual missing-value tokens and
// become null.

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// nullTokens are the cell values read as missing.
var nullTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsNullToken reports whether a raw cell should be read as missing.
func IsNullToken(s string) bool {
	return nullTokens[s]
}

// ParseInt parses an integer cell that must fit in bits.
func ParseInt(s string, bits int) (int64, error) {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return 0, fmt.Errorf("missing value in integer column")
	}
	n, err := strconv.ParseInt(s, 10, bits)
	if err == nil {
		return n, nil
	}
	// Integral floats like "3.0" are accepted.
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	lim := math.Ldexp(1, bits-1)
	if f < -lim || f >= lim {
		return 0, fmt.Errorf("integer %q out of range for int%d", s, bits)
	}
	return int64(f), nil
}

// ToFloat4 converts a cell to a nullable float32.
func ToFloat4(s string) (pgtype.Float4, error) {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return pgtype.Float4{}, nil
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return pgtype.Float4{}, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(f) {
		return pgtype.Float4{}, nil
	}
	return pgtype.Float4{Float32: float32(f), Valid: true}, nil
}

// ToCategory interns a categorical cell. Missing tokens become null.
func ToCategory(s string) Category {
	if IsNullToken(s) {
		return Category{}
	}
	return NewCategory(s)
}

// ToText converts a free-text cell. Missing tokens become null.
func ToText(s string) pgtype.Text {
	if IsNullToken(s) {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// FormatFloat4 renders a float the way it was written by the upstream
// exports: always with a decimal point, empty for null.
func FormatFloat4(f pgtype.Float4) string {
	if !f.Valid {
		return ""
	}
	s := strconv.FormatFloat(float64(f.Float32), 'f', -1, 32)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

// FormatText renders a nullable text cell.
func FormatText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// HeaderIndex maps column names to their position in the CSV header.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row. Names are trimmed
// but case is kept, column names are case-sensitive.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldInt32:
		return "int32"
	case FieldInt16:
		return "int16"
	case FieldInt8:
		return "int8"
	case FieldFloat32:
		return "float32"
	case FieldCategory:
		return "category"
	case FieldText:
		return "text"
	default:
		return "value"
	}
}
