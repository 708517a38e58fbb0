package notify

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
)

func TestSilentPolicySwallows(t *testing.T) {
	rec := &Recorder{}
	assert.False(t, Silent.Failure(rec, "poll", errors.New("down")))
	Silent.Success(rec, "done")
	assert.Empty(t, rec.Notices())
}

func TestReportPolicySurfaces(t *testing.T) {
	rec := &Recorder{}
	assert.True(t, Report.Failure(rec, "Create instance", &gateway.APIError{Op: "create", Message: "token taken"}))
	Report.Success(rec, "Instance created")

	notices := rec.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, Error, notices[0].Level)
	assert.Equal(t, "Create instance: token taken", notices[0].Text)
	assert.Equal(t, Success, notices[1].Level)
}

func TestValidationNoticeHasNoActionPrefix(t *testing.T) {
	rec := &Recorder{}
	Report.Failure(rec, "Create instance", &gateway.ValidationError{Field: "name", Message: "name is required"})
	assert.Equal(t, "name: name is required", rec.Notices()[0].Text)
}

func TestNilErrorIsNotReported(t *testing.T) {
	rec := &Recorder{}
	assert.False(t, Report.Failure(rec, "x", nil))
	assert.Empty(t, rec.Notices())
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Notify(Notice{Level: Error, Text: "boom"})
	assert.Equal(t, "[error] boom\n", buf.String())
}

func TestBusNotifier(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("notify.", 4)
	defer unsub()

	Multi{NewBus(b), &Recorder{}}.Notify(Notice{Level: Success, Text: "ok"})
	select {
	case evt := <-ch:
		assert.Equal(t, bus.KindNotifySuccess, evt.Kind)
		assert.Equal(t, "ok", evt.Payload.(Notice).Text)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notice")
	}
}
