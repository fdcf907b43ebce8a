package hnsw

import "github.com/lucelabs/vessel/metric"

// Options configures a Graph. The zero value is never used directly; New
// starts from defaultOptions and applies optFns on top, mirroring the
// functional-options construction style used throughout this module.
type Options struct {
	M              int
	EfConstruction int
	EfSearch       int
	Metric         string
}

// Option mutates Options during New.
type Option func(*Options)

// WithM sets the maximum number of neighbors per node at layers >= 1.
// Layer 0's capacity (M0) is always 2*M.
func WithM(m int) Option {
	return func(o *Options) { o.M = m }
}

// WithEfConstruction sets the beam width used while inserting.
func WithEfConstruction(ef int) Option {
	return func(o *Options) { o.EfConstruction = ef }
}

// WithEfSearch sets the default beam width used while searching, when the
// caller doesn't pass an explicit override.
func WithEfSearch(ef int) Option {
	return func(o *Options) { o.EfSearch = ef }
}

// WithMetric selects "cosine", "euclidean", or "dot".
func WithMetric(name string) Option {
	return func(o *Options) { o.Metric = name }
}

func defaultOptions() Options {
	return Options{
		M:              16,
		EfConstruction: 200,
		EfSearch:       50,
		Metric:         "cosine",
	}
}

func (o Options) m0() int {
	return 2 * o.M
}

func (o Options) valid() error {
	if o.M < 1 {
		return errInvalidM
	}
	if o.EfConstruction < 1 {
		return errInvalidEfConstruction
	}
	if !metric.IsValidMetric(o.Metric) {
		return metric.ErrUnknownMetric
	}
	return nil
}
