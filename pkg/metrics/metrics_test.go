package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(c prometheus.Metric) float64 {
	var m dto.Metric
	So(c.Write(&m), ShouldBeNil)
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestNewManager(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom naming", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)
			m.replays.WithLabelValues(ResultOK).Inc()

			Convey("Then its collectors are registered under that name", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_replays_total" {
						found = true
					}
					So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a failed replay is recorded", func() {
			before := value(globalManager.replays.WithLabelValues(ResultError))
			RecordReplay(errors.New("boom"), 1.5)
			after := value(globalManager.replays.WithLabelValues(ResultError))
			So(after-before, ShouldEqual, 1)
		})

		Convey("When events are appended and undone", func() {
			before := value(globalManager.eventsAppended.WithLabelValues("point"))
			RecordEventAppended("point")
			RecordEventUndone()
			So(value(globalManager.eventsAppended.WithLabelValues("point"))-before, ShouldEqual, 1)
		})

		Convey("When queue gauges are updated", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)
			So(value(globalManager.queueSize), ShouldEqual, 7)
			So(value(globalManager.queueCapacity), ShouldEqual, 64)
		})

		Convey("When the remaining recorders run", func() {
			So(func() {
				RecordEventRejected("replay")
				RecordAuditResult(nil)
				RecordStoreOperation("memory", "append", 0.2, nil)
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordErrorByComponent("store", "io")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
