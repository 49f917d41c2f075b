package fetchurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChecksum(t *testing.T) {
	tests := []struct {
		input    string
		wantAlgo string
		wantHash string
		wantErr  bool
	}{
		{input: "sha256:ABCDEF", wantAlgo: "sha256", wantHash: "abcdef"},
		{input: "SHA512:00ff", wantAlgo: "sha512", wantHash: "00ff"},
		{input: "deadbeef", wantAlgo: "sha256", wantHash: "deadbeef"},
		{input: "md5:1234", wantErr: true},
		{input: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			algo, hash, err := ParseChecksum(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlgo, algo)
			assert.Equal(t, tt.wantHash, hash)
		})
	}
}
