package native

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	got *http.Request
}

func (r *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r.got = req
	return httptest.NewRecorder().Result(), nil
}

func TestGithubAuthTransportOnlyTouchesGithub(t *testing.T) {
	tests := []struct {
		url      string
		wantAuth string
	}{
		{url: "https://github.com/llvm/llvm-project/releases", wantAuth: "Bearer secret"},
		{url: "https://api.github.com/repos/ninja-build/ninja", wantAuth: "Bearer secret"},
		{url: "https://releases.llvm.org/9.0.0/", wantAuth: ""},
		{url: "https://notgithub.com/", wantAuth: ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := &recordingTransport{}
			tr := &githubAuthTransport{base: rec, token: "secret"}
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			require.NoError(t, err)
			_, err = tr.RoundTrip(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAuth, rec.got.Header.Get("Authorization"))
		})
	}
}

func TestClientIsReused(t *testing.T) {
	d := &Driver{}
	assert.Same(t, d.Client(), d.Client())
}
