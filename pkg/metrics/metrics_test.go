package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered returns the metric families of registry keyed by name.
func gathered(registry *prometheus.Registry) map[string]float64 {
	out := make(map[string]float64)
	families, err := registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the commitwatch namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "commitwatch")
				So(manager.subsystem, ShouldEqual, "scanner")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("watch"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.registrySize.Set(256)

			Convey("Then metrics should carry the custom name and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() != "test_watch_registry_size" {
						continue
					}
					found = true
					labels := mf.GetMetric()[0].GetLabel()
					So(labels, ShouldHaveLength, 1)
					So(labels[0].GetName(), ShouldEqual, "env")
					So(labels[0].GetValue(), ShouldEqual, "test")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with empty or nil option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "commitwatch")
				So(manager.subsystem, ShouldEqual, "scanner")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		before := gathered(GetRegistry())

		Convey("When recording a scan cycle", func() {
			RecordScan("ok", 12.5)
			UpdateRegistrySize(256)
			UpdateScanProgress(128)
			RecordScanCompleted(4200, 1_700_000_000)
			after := gathered(GetRegistry())

			Convey("Then the scan metrics should reflect it", func() {
				So(after["commitwatch_scanner_scans_total"]-before["commitwatch_scanner_scans_total"], ShouldEqual, 1)
				So(after["commitwatch_scanner_scan_duration_seconds"]-before["commitwatch_scanner_scan_duration_seconds"], ShouldEqual, 1)
				So(after["commitwatch_scanner_registry_size"], ShouldEqual, 256)
				So(after["commitwatch_scanner_scan_progress_slots"], ShouldEqual, 128)
				So(after["commitwatch_scanner_last_scan_block"], ShouldEqual, 4200)
				So(after["commitwatch_scanner_last_scan_timestamp_seconds"], ShouldEqual, 1_700_000_000)
			})
		})

		Convey("When recording ledger reads and decode failures", func() {
			RecordLedgerFetch("present")
			RecordLedgerFetch("transient")
			RecordLedgerRetry()
			RecordDecodeFailure("unsupported_version")
			after := gathered(GetRegistry())

			Convey("Then the counters should grow", func() {
				So(after["commitwatch_scanner_ledger_fetch_total"]-before["commitwatch_scanner_ledger_fetch_total"], ShouldEqual, 2)
				So(after["commitwatch_scanner_ledger_fetch_retries_total"]-before["commitwatch_scanner_ledger_fetch_retries_total"], ShouldEqual, 1)
				So(after["commitwatch_scanner_decode_failures_total"]-before["commitwatch_scanner_decode_failures_total"], ShouldEqual, 1)
			})
		})

		Convey("When recording resolution and delivery", func() {
			RecordConflict("repository", "evicted")
			RecordConflict("revision", "discarded")
			UpdateSubmissionsPresent(17)
			RecordChanges(3)
			RecordNotification("sent")
			RecordBaselineDiscarded()
			after := gathered(GetRegistry())

			Convey("Then the counters and gauges should reflect it", func() {
				So(after["commitwatch_scanner_conflicts_total"]-before["commitwatch_scanner_conflicts_total"], ShouldEqual, 2)
				So(after["commitwatch_scanner_submissions_present"], ShouldEqual, 17)
				So(after["commitwatch_scanner_changes_detected_total"]-before["commitwatch_scanner_changes_detected_total"], ShouldEqual, 3)
				So(after["commitwatch_scanner_notifications_total"]-before["commitwatch_scanner_notifications_total"], ShouldEqual, 1)
				So(after["commitwatch_scanner_baseline_discarded_total"]-before["commitwatch_scanner_baseline_discarded_total"], ShouldEqual, 1)
			})
		})

		Convey("When recording HTTP metrics", func() {
			RecordHTTPRequest("/stats", "GET", "200")
			RecordHTTPRequestDuration("/stats", "GET", "200", 4.2)
			after := gathered(GetRegistry())

			Convey("Then the HTTP metrics should grow", func() {
				So(after["commitwatch_scanner_http_requests_total"]-before["commitwatch_scanner_http_requests_total"], ShouldEqual, 1)
				So(after["commitwatch_scanner_http_request_duration_milliseconds"]-before["commitwatch_scanner_http_request_duration_milliseconds"], ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given metrics edge cases", t, func() {
		Convey("When recording zero and empty values", func() {
			So(func() {
				UpdateRegistrySize(0)
				UpdateScanProgress(0)
				RecordChanges(0)
				RecordHTTPRequest("", "", "200")
				RecordDecodeFailure("")
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			before := gathered(GetRegistry())["commitwatch_scanner_ledger_fetch_total"]

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordLedgerFetch("absent")
						UpdateScanProgress(j)
					}
				}()
			}
			wg.Wait()

			Convey("Then no increment should be lost", func() {
				after := gathered(GetRegistry())["commitwatch_scanner_ledger_fetch_total"]
				So(after-before, ShouldEqual, 1000)
			})
		})
	})
}
