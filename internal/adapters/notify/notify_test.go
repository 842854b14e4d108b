package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/internal/domain/submission"
	"github.com/okian/commitwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func testAlert() notify.Alert {
	return notify.Alert{
		Block:  4200,
		UID:    17,
		Hotkey: "5Alice",
		Submission: submission.Submission{
			Repository: "https://huggingface.co/alice/model",
			Revision:   "abc1234",
			Contest:    submission.ContestFluxNvidia4090,
		},
	}
}

// recorder answers with statuses in order, repeating the last one.
type recorder struct {
	calls    atomic.Int32
	statuses []int
	body     atomic.Value
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	n := int(r.calls.Add(1)) - 1
	data, _ := io.ReadAll(req.Body)
	r.body.Store(data)
	status := r.statuses[len(r.statuses)-1]
	if n < len(r.statuses) {
		status = r.statuses[n]
	}
	w.WriteHeader(status)
}

// countingTransport counts round trips before handing them to next.
type countingTransport struct {
	next http.RoundTripper
	n    *atomic.Int32
}

func (c countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return c.next.RoundTrip(req)
}

func newWebhook(t *testing.T, rec *recorder, opts ...notify.WebhookOption) *notify.Webhook {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	opts = append([]notify.WebhookOption{
		notify.WithInitialInterval(time.Millisecond),
		notify.WithMaxElapsedTime(2 * time.Second),
	}, opts...)
	w, err := notify.NewWebhook(srv.URL, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWebhook(t *testing.T) {
	Convey("Given a webhook endpoint", t, func() {
		ctx := context.Background()

		Convey("When an alert is delivered", func() {
			rec := &recorder{statuses: []int{http.StatusNoContent}}
			err := newWebhook(t, rec).Notify(ctx, testAlert())

			Convey("Then the payload should be a single embed", func() {
				So(err, ShouldBeNil)
				So(rec.calls.Load(), ShouldEqual, 1)

				var payload struct {
					Username string `json:"username"`
					Embeds   []struct {
						Title  string `json:"title"`
						Color  int    `json:"color"`
						Fields []struct {
							Name  string `json:"name"`
							Value string `json:"value"`
						} `json:"fields"`
					} `json:"embeds"`
				}
				So(json.Unmarshal(rec.body.Load().([]byte), &payload), ShouldBeNil)
				So(payload.Username, ShouldEqual, "Miner Submission notifs")
				So(payload.Embeds, ShouldHaveLength, 1)
				So(payload.Embeds[0].Title, ShouldEqual, "New Miner Submission")
				So(payload.Embeds[0].Color, ShouldEqual, 0x9F2B68)
				So(payload.Embeds[0].Fields, ShouldHaveLength, 1)

				field := payload.Embeds[0].Fields[0]
				So(field.Name, ShouldEqual, "Contest: FLUX_NVIDIA_4090")
				So(field.Value, ShouldContainSubstring, "- **Repository**: https://huggingface.co/alice/model\n")
				So(field.Value, ShouldContainSubstring, "[abc1234](https://huggingface.co/alice/model/commit/abc1234)")
				So(field.Value, ShouldContainSubstring, "- **Block**: `4200`")
				So(field.Value, ShouldContainSubstring, "- **UID**: `17`")
				So(field.Value, ShouldEndWith, "- **Hotkey**: `5Alice`")
			})
		})

		Convey("When a custom username is configured", func() {
			rec := &recorder{statuses: []int{http.StatusOK}}
			err := newWebhook(t, rec, notify.WithUsername("watcher")).Notify(ctx, testAlert())

			Convey("Then it should be used", func() {
				So(err, ShouldBeNil)
				So(string(rec.body.Load().([]byte)), ShouldContainSubstring, `"username":"watcher"`)
			})
		})

		Convey("When a shared client is given a timeout", func() {
			rec := &recorder{statuses: []int{http.StatusOK}}
			var trips atomic.Int32
			shared := &http.Client{Transport: countingTransport{next: http.DefaultTransport, n: &trips}}
			w := newWebhook(t, rec, notify.WithHTTPClient(shared), notify.WithTimeout(3*time.Second))
			err := w.Notify(ctx, testAlert())

			Convey("Then the shared client should keep its settings and still carry the request", func() {
				So(err, ShouldBeNil)
				So(shared.Timeout, ShouldEqual, time.Duration(0))
				So(trips.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the endpoint is briefly unavailable", func() {
			rec := &recorder{statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK}}
			err := newWebhook(t, rec).Notify(ctx, testAlert())

			Convey("Then the alert should be retried until delivered", func() {
				So(err, ShouldBeNil)
				So(rec.calls.Load(), ShouldEqual, 3)
			})
		})

		Convey("When the endpoint rejects the alert", func() {
			rec := &recorder{statuses: []int{http.StatusBadRequest}}
			err := newWebhook(t, rec).Notify(ctx, testAlert())

			Convey("Then it should fail without retrying", func() {
				So(errors.Is(err, notify.ErrDelivery), ShouldBeTrue)
				So(rec.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the endpoint keeps failing", func() {
			rec := &recorder{statuses: []int{http.StatusInternalServerError}}
			w := newWebhook(t, rec, notify.WithMaxElapsedTime(50*time.Millisecond))
			err := w.Notify(ctx, testAlert())

			Convey("Then it should give up with a delivery error", func() {
				So(errors.Is(err, notify.ErrDelivery), ShouldBeTrue)
				So(rec.calls.Load(), ShouldBeGreaterThan, 1)
			})
		})
	})

	Convey("Given an empty webhook url", t, func() {
		_, err := notify.NewWebhook("")

		Convey("Then the webhook should not be created", func() {
			So(errors.Is(err, notify.ErrEmptyURL), ShouldBeTrue)
		})
	})
}

func TestLog(t *testing.T) {
	Convey("Given a log notifier", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithOutput(&buf)), ShouldBeNil)
		n := notify.NewLog(logger.Get())

		Convey("When an alert is written", func() {
			err := n.Notify(context.Background(), testAlert())

			Convey("Then the log line should carry the submission", func() {
				So(err, ShouldBeNil)
				line := buf.String()
				So(line, ShouldContainSubstring, "new miner submission")
				So(line, ShouldContainSubstring, "contest=FLUX_NVIDIA_4090")
				So(line, ShouldContainSubstring, "uid=17")
				So(strings.Contains(line, "commit=https://huggingface.co/alice/model/commit/abc1234"), ShouldBeTrue)
			})
		})
	})
}
