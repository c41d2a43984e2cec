package results

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewReport(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	res := []TestResult{
		{ID: "facebook/test_login[1]", Suite: "facebook", Outcome: Failed, History: []Outcome{Failed, Failed}},
		{ID: "auth/test_b", Suite: "auth", Outcome: Passed, History: []Outcome{Passed}},
		{ID: "facebook/test_login[0]", Suite: "facebook", Outcome: Passed, History: []Outcome{Failed, Passed}},
		{ID: "facebook/test_xfail", Suite: "facebook", Outcome: XFailed, History: []Outcome{XFailed}},
	}

	r := NewReport("run-1", Metadata{Project: "p"}, start, start.Add(90*time.Second), res)

	var ids []string
	for _, tr := range r.Results {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"auth/test_b", "facebook/test_login[0]", "facebook/test_login[1]", "facebook/test_xfail"}, ids)

	want := map[string]int{"passed": 2, "failed": 1, "skipped": 0, "xfailed": 1, "rerun": 2, "total": 4}
	if diff := cmp.Diff(want, r.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, r.Failed())
	assert.Equal(t, 90*time.Second, r.Duration())
	assert.Equal(t, "facebook/test_login[1]", res[0].ID, "input order is untouched")

	data, err := r.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-1"`)
	assert.Contains(t, string(data), `"history": [`)
}

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, "uiprobe.results", zap.NewNop())

	ev := Event{RunID: "r1", TestID: "facebook/test_login[0]", Attempt: 2, Outcome: Passed, Duration: time.Second}
	require.NoError(t, p.Publish(ev))
	assert.Equal(t, []string{"uiprobe.results.r1"}, conn.subjects)

	var got Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}

	conn.err = errors.New("nats: connection closed")
	assert.ErrorContains(t, p.Publish(ev), "uiprobe.results.r1")

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)

	var nop Publisher = Nop{}
	assert.NoError(t, nop.Publish(ev))
}
