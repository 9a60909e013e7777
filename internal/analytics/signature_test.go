package analytics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_Deterministic(t *testing.T) {
	body := []byte(`{"jobId":"42"}`)

	a := Sign("secret", 1700000000, body)
	b := Sign("secret", 1700000000, body)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, Sign("other", 1700000000, body))
	assert.NotEqual(t, a, Sign("secret", 1700000001, body))
	assert.NotEqual(t, a, Sign("secret", 1700000000, []byte(`{"jobId":"43"}`)))
}

func TestVerify(t *testing.T) {
	body := []byte(`{"jobId":"42"}`)
	now := time.Unix(1700000000, 0)
	sig := Sign("secret", now.Unix(), body)

	tests := []struct {
		name    string
		secret  string
		sig     string
		ts      int64
		body    []byte
		wantErr error
	}{
		{"valid", "secret", sig, now.Unix(), body, nil},
		{"wrong secret", "nope", sig, now.Unix(), body, ErrInvalidSignature},
		{"tampered body", "secret", sig, now.Unix(), []byte(`{"jobId":"1"}`), ErrInvalidSignature},
		{"too old", "secret", Sign("secret", now.Unix()-600, body), now.Unix() - 600, body, ErrReplayWindowExceeded},
		{"from the future", "secret", Sign("secret", now.Unix()+600, body), now.Unix() + 600, body, ErrReplayWindowExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.secret, tt.sig, tt.ts, tt.body, now, DefaultReplayWindow)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPSink_SignsRequests(t *testing.T) {
	t.Parallel()

	var verifyErr error
	var gotSignature bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sig := r.Header.Get(SignatureHeader)
		gotSignature = sig != ""
		ts, _ := strconv.ParseInt(r.Header.Get(TimestampHeader), 10, 64)
		verifyErr = Verify("collector-secret", sig, ts, body, time.Now(), DefaultReplayWindow)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, srv.Client()).WithSigningSecret("collector-secret")
	require.NoError(t, sink.Send(context.Background(), testEvent()))

	assert.True(t, gotSignature)
	assert.NoError(t, verifyErr)
}

func TestHTTPSink_UnsignedWithoutSecret(t *testing.T) {
	t.Parallel()

	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPSink(srv.URL, srv.Client()).Send(context.Background(), testEvent()))
	assert.Empty(t, header)
}
