package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	calls int
	err   error
}

func (s *recordingSink) Replace(_ context.Context, ds Dataset) error {
	s.calls++
	return s.err
}

type recordingObserver struct {
	reports []*Report
	errs    []error
}

func (o *recordingObserver) Observe(rep *Report, err error) {
	o.reports = append(o.reports, rep)
	o.errs = append(o.errs, err)
}

func writeInputs(t *testing.T, orders string) (in, out Paths) {
	t.Helper()
	dir := t.TempDir()
	in = Paths{
		Orders:   filepath.Join(dir, "orders.csv"),
		Items:    filepath.Join(dir, "order_products__prior.csv"),
		Products: filepath.Join(dir, "products.csv"),
	}
	out = Paths{
		Orders:   filepath.Join(dir, "clean_orders.csv"),
		Items:    filepath.Join(dir, "clean_order_products.csv"),
		Products: filepath.Join(dir, "clean_products.csv"),
	}
	require.NoError(t, os.WriteFile(in.Orders, []byte(orders), 0o644))
	require.NoError(t, os.WriteFile(in.Items, []byte(itemsCSV), 0o644))
	require.NoError(t, os.WriteFile(in.Products, []byte(productsCSV), 0o644))
	return in, out
}

func TestPipeline_Run(t *testing.T) {
	in, out := writeInputs(t, ordersCSV)
	reportPath := filepath.Join(filepath.Dir(out.Orders), "report.yaml")
	sink := &recordingSink{}
	obs := &recordingObserver{}
	var stdout bytes.Buffer

	p := NewPipeline(PipelineOptions{
		Input:      in,
		Output:     out,
		ReportPath: reportPath,
		Sink:       sink,
		Observer:   obs,
		Logger:     quietLogger(),
		Stdout:     &stdout,
	})

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Zero(t, rep.Count(CheckMissingOrders))
	assert.Zero(t, rep.Count(CheckMissingProducts))
	assert.FileExists(t, out.Orders)
	assert.FileExists(t, out.Items)
	assert.FileExists(t, out.Products)
	assert.FileExists(t, reportPath)
	assert.Equal(t, 1, sink.calls)
	require.Len(t, obs.reports, 1)
	assert.Same(t, rep, obs.reports[0])
	assert.Contains(t, stdout.String(), CheckDuplicateProducts)
}

func TestPipeline_DuplicateOrderIDWritesNothing(t *testing.T) {
	orders := "order_id,user_id,eval_set,order_number,order_dow,order_hour_of_day,days_since_prior_order\n" +
		"1,1,prior,1,2,8,\n" +
		"1,1,prior,2,2,8,3.0\n"
	in, out := writeInputs(t, orders)
	sink := &recordingSink{}
	obs := &recordingObserver{}

	p := NewPipeline(PipelineOptions{
		Input:      in,
		Output:     out,
		ReportPath: filepath.Join(filepath.Dir(out.Orders), "report.yaml"),
		Sink:       sink,
		Observer:   obs,
		Logger:     quietLogger(),
		Stdout:     &bytes.Buffer{},
	})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	assert.NoFileExists(t, out.Orders)
	assert.NoFileExists(t, out.Items)
	assert.NoFileExists(t, out.Products)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(out.Orders), "report.yaml"))
	assert.Zero(t, sink.calls)
	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
}

func TestPipeline_SinkErrorIsReturned(t *testing.T) {
	in, out := writeInputs(t, ordersCSV)

	p := NewPipeline(PipelineOptions{
		Input:  in,
		Output: out,
		Sink:   &recordingSink{err: errors.New("db down")},
		Logger: quietLogger(),
		Stdout: &bytes.Buffer{},
	})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink: db down")
}

func TestPipeline_LoadErrorStopsBeforeValidation(t *testing.T) {
	in, out := writeInputs(t, "order_id\n1\n")
	obs := &recordingObserver{}

	p := NewPipeline(PipelineOptions{Input: in, Output: out, Observer: obs, Logger: quietLogger(), Stdout: &bytes.Buffer{}})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Empty(t, obs.reports)
}
