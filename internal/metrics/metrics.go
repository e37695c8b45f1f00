package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stash"

// Recorder exports upload, share and janitor counters. A nil *Recorder is a no-op.
type Recorder struct {
	uploadsCompleted *prometheus.CounterVec
	uploadedBytes    prometheus.Counter
	chunksReceived   prometheus.Counter
	shareAccesses    *prometheus.CounterVec
	janitorReclaimed *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	recorder := &Recorder{}
	var err error
	if recorder.uploadsCompleted, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_completed_total",
		Help:      "Files registered through the upload flows.",
	}, "mode"); err != nil {
		return nil, err
	}
	if recorder.uploadedBytes, err = registerCounter(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Cumulative size of committed uploads.",
	}); err != nil {
		return nil, err
	}
	if recorder.chunksReceived, err = registerCounter(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upload_chunks_received_total",
		Help:      "Chunk writes accepted, duplicates included.",
	}); err != nil {
		return nil, err
	}
	if recorder.shareAccesses, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "share_accesses_total",
		Help:      "Recorded share link accesses.",
	}, "target", "kind"); err != nil {
		return nil, err
	}
	if recorder.janitorReclaimed, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "janitor_reclaimed_total",
		Help:      "Records reclaimed by the janitor sweep.",
	}, "kind"); err != nil {
		return nil, err
	}
	return recorder, nil
}

func NewDefaultRecorder() (*Recorder, error) {
	return NewRecorder(prometheus.DefaultRegisterer)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) (prometheus.Counter, error) {
	counter := prometheus.NewCounter(opts)
	if err := reg.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", opts.Name, err)
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	counter := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", opts.Name, err)
	}
	return counter, nil
}

func (r *Recorder) UploadCompleted(mode string, size int64) {
	if r == nil {
		return
	}
	r.uploadsCompleted.WithLabelValues(mode).Inc()
	r.uploadedBytes.Add(float64(size))
}

func (r *Recorder) ChunkReceived() {
	if r == nil {
		return
	}
	r.chunksReceived.Inc()
}

func (r *Recorder) ShareAccessed(target, kind string) {
	if r == nil {
		return
	}
	r.shareAccesses.WithLabelValues(target, kind).Inc()
}

func (r *Recorder) Reclaimed(kind string, count int) {
	if r == nil || count == 0 {
		return
	}
	r.janitorReclaimed.WithLabelValues(kind).Add(float64(count))
}
