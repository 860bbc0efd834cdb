package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersan/internal/core"
)

func report() *core.Report {
	rep := core.NewReport()
	rep.Checks = []core.CheckResult{
		{Name: core.CheckMissingOrders, Table: core.TableItems, Severity: core.SeverityWarning, Count: 3},
		{Name: core.CheckOrderNumber, Table: core.TableOrders, Severity: core.SeverityWarning, Count: 0},
	}
	rep.Nulls = []core.TableNulls{{
		Table: core.TableOrders,
		Rows:  10,
		Columns: []core.ColumnNulls{
			{Column: "order_id"},
			{Column: "days_since_prior_order", Count: 2},
		},
	}}
	return rep
}

func TestObserve_RecordsCounts(t *testing.T) {
	r := NewRegistry()
	r.Observe(report(), nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.Violations.WithLabelValues(core.CheckMissingOrders, core.TableItems)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Violations.WithLabelValues(core.CheckOrderNumber, core.TableOrders)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Nulls.WithLabelValues(core.TableOrders, "days_since_prior_order")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.Rows.WithLabelValues(core.TableOrders)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues(OutcomeWarnings)))
}

func TestObserve_Outcomes(t *testing.T) {
	r := NewRegistry()

	clean := core.NewReport()
	r.Observe(clean, nil)
	r.Observe(clean, &core.HardInvariantViolation{Invariant: core.CheckUniqueOrderID})
	r.Observe(nil, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues(OutcomeFatal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues(OutcomeError)))
}

func TestHandler_ServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.Observe(report(), nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sanitize_check_violations")
}
