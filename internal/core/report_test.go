package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestReport_WriteTextListsZeroCountChecks(t *testing.T) {
	rep, err := validate(t, cleanDataset())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteText(&buf))
	out := buf.String()

	for _, c := range rep.Checks {
		assert.Contains(t, out, c.Name)
	}
	assert.Contains(t, out, "Null values in orders (2 rows)")
	assert.Contains(t, out, "days_since_prior_order")
	assert.Contains(t, out, "Null values in products")
}

func TestReport_WriteYAML(t *testing.T) {
	ds := dataset([]Order{order(1, 1, 0)}, []OrderItem{item(2, 10, 1)}, []Product{product(10)})
	rep, err := validate(t, ds)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteYAML(&buf))

	var decoded struct {
		RunID  string `yaml:"run_id"`
		Checks []struct {
			Name  string `yaml:"name"`
			Count int    `yaml:"count"`
		} `yaml:"checks"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, rep.RunID.String(), decoded.RunID)
	counts := map[string]int{}
	for _, c := range decoded.Checks {
		counts[c.Name] = c.Count
	}
	assert.Equal(t, 1, counts[CheckOrderNumber])
	assert.Equal(t, 1, counts[CheckMissingOrders])
}

func TestReport_Accessors(t *testing.T) {
	rep := NewReport()
	rep.Checks = []CheckResult{
		{Name: CheckMissingOrders, Severity: SeverityWarning, Count: 2},
		{Name: CheckDuplicateItems, Severity: SeverityInfo},
	}

	assert.Equal(t, 2, rep.Count(CheckMissingOrders))
	assert.Zero(t, rep.Count("not_a_check"))
	assert.Len(t, rep.Warnings(), 1)
	assert.False(t, rep.Fatal())

	_, ok := rep.NullsFor(TableOrders)
	assert.False(t, ok)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"duplicate key", &HardInvariantViolation{Invariant: CheckUniqueOrderID}, "INV001"},
		{"wrapped duplicate key", fmt.Errorf("run: %w", &HardInvariantViolation{}), "INV001"},
		{"cell", &CellError{Err: errors.New("bad")}, "VAL002"},
		{"missing column", fmt.Errorf("orders: %w: x", ErrMissingColumn), "VAL004"},
		{"unknown column", fmt.Errorf("orders: %w: x", ErrUnknownColumn), "VAL007"},
		{"too large", ErrFileTooLarge, "FILE001"},
		{"invalid csv", errors.New("orders: invalid csv: wrong number of fields"), "FILE002"},
		{"no file", fmt.Errorf("products: %w", ErrNoFile), "FILE004"},
		{"empty", ErrEmptyFile, "FILE005"},
		{"other", errors.New("boom"), "ERR000"},
		{"nil", nil, "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			assert.Equal(t, tt.code, msg.Code)
			assert.NotEmpty(t, strings.TrimSpace(msg.Message))
		})
	}
}
