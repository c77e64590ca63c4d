// Package statusapi is the sink the unit status is reported to.
package statusapi

import (
	"context"
	"fmt"
	"github.com/gatici/mongodb-operator/model"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

var apiLog = logrus.WithField("module", "statusapi")

type Sink interface {
	Report(ctx context.Context, status model.UnitStatus) error
}

// Report is a unit status together with the time it was reported.
type Report struct {
	model.UnitStatus
	Updated time.Time `json:"updated"`
}

// Recorder is an in-process Sink keeping the last reported status.
type Recorder struct {
	metrics *Metrics
	now     func() time.Time

	mutex    sync.RWMutex
	last     Report
	reported bool
}

func NewRecorder(metrics *Metrics) *Recorder {
	return &Recorder{
		metrics: metrics,
		now:     time.Now,
	}
}

func (r *Recorder) Report(ctx context.Context, status model.UnitStatus) error {
	if !status.Kind.Valid() {
		return fmt.Errorf("invalid unit status `%s`", status.Kind)
	}

	r.mutex.Lock()
	previous, reported := r.last, r.reported
	r.last = Report{UnitStatus: status, Updated: r.now()}
	r.reported = true
	r.mutex.Unlock()

	if !reported || previous.UnitStatus != status {
		apiLog.WithField("status", status.Kind).Infof("unit status changed: %s", status)
	}
	if r.metrics != nil {
		r.metrics.observe(status)
	}
	return nil
}

// Last returns the last reported status, false if none was reported yet.
func (r *Recorder) Last() (Report, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.last, r.reported
}
