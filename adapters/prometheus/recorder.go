// Package prometheus exports platform metrics through client_golang.
package prometheus

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-streamone/core"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuckets suit request durations in milliseconds.
var DefaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

type Option func(*Recorder)

func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = sanitizeName(namespace)
	}
}

func WithBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// Recorder registers one vector per metric name on first use. The label set
// of a metric is fixed by its first sample: later tags outside that set are
// dropped and missing ones are recorded as empty.
type Recorder struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*labeledCounter
	histograms map[string]*labeledHistogram
}

type labeledCounter struct {
	vec    *prometheus.CounterVec
	labels []string
}

type labeledHistogram struct {
	vec    *prometheus.HistogramVec
	labels []string
}

func NewRecorder(registerer prometheus.Registerer, opts ...Option) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	recorder := &Recorder{
		registerer: registerer,
		buckets:    DefaultBuckets,
		counters:   map[string]*labeledCounter{},
		histograms: map[string]*labeledHistogram{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	return recorder
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	counter := r.counter(name, tags)
	if counter == nil {
		return
	}
	counter.vec.With(labelValues(counter.labels, tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram := r.histogram(name, tags)
	if histogram == nil {
		return
	}
	histogram.vec.With(labelValues(histogram.labels, tags)).Observe(value)
}

func (r *Recorder) counter(name string, tags map[string]string) *labeledCounter {
	metricName := r.metricName(name)
	if metricName == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.counters[metricName]; ok {
		return existing
	}
	labels := labelNames(tags)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "StreamOne counter " + name,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !asAlreadyRegistered(err, &already) {
			return nil
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	counter := &labeledCounter{vec: vec, labels: labels}
	r.counters[metricName] = counter
	return counter
}

func (r *Recorder) histogram(name string, tags map[string]string) *labeledHistogram {
	metricName := r.metricName(name)
	if metricName == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.histograms[metricName]; ok {
		return existing
	}
	labels := labelNames(tags)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "StreamOne histogram " + name,
		Buckets: r.buckets,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !asAlreadyRegistered(err, &already) {
			return nil
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	histogram := &labeledHistogram{vec: vec, labels: labels}
	r.histograms[metricName] = histogram
	return histogram
}

func (r *Recorder) metricName(name string) string {
	sanitized := sanitizeName(name)
	if sanitized == "" {
		return ""
	}
	if r.namespace != "" {
		return r.namespace + "_" + sanitized
	}
	return sanitized
}

func asAlreadyRegistered(err error, target *prometheus.AlreadyRegisteredError) bool {
	already, ok := err.(prometheus.AlreadyRegisteredError)
	if ok {
		*target = already
	}
	return ok
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for key := range tags {
		if sanitized := sanitizeName(key); sanitized != "" {
			names = append(names, sanitized)
		}
	}
	sort.Strings(names)
	return names
}

func labelValues(labels []string, tags map[string]string) prometheus.Labels {
	sanitized := make(map[string]string, len(tags))
	for key, value := range tags {
		sanitized[sanitizeName(key)] = value
	}
	values := make(prometheus.Labels, len(labels))
	for _, label := range labels {
		values[label] = sanitized[label]
	}
	return values
}

// sanitizeName maps dotted names such as streamone.request.total onto the
// prometheus charset.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
