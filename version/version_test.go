package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	info := Info{CommitHash: "abcdef1234", BuildTime: "2024-01-15", Version: "dev", FormatVersion: "1.1.0"}
	assert.Equal(t, "hansard dev (commit abcdef1, built 2024-01-15, formats 1.1.0)", info.String())
	assert.Equal(t, "abcdef1", info.Short())

	info.Version = "v1.2"
	assert.Equal(t, "hansard 1.2.0 (commit abcdef1, built 2024-01-15, formats 1.1.0)", info.String())
}

func TestShortWithShortHash(t *testing.T) {
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
}

func TestGenerator(t *testing.T) {
	tests := []struct {
		version string
		commit  string
		want    string
	}{
		{"v1.4.0", "abcdef1234", "hansard/1.4.0"},
		{"1.4", "abcdef1234", "hansard/1.4.0"},
		{"dev", "abcdef1234", "hansard/dev+abcdef1"},
		{"", "dev", "hansard/dev+dev"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			info := Info{Version: tt.version, CommitHash: tt.commit}
			assert.Equal(t, tt.want, info.Generator())
		})
	}
}

func TestGetCarriesFormatVersion(t *testing.T) {
	info := Get()
	assert.Equal(t, FormatVersion, info.FormatVersion)
	assert.NotEmpty(t, info.Platform)
}

func TestCompatibleFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "", want: true},
		{in: FormatVersion, want: true},
		{in: "1.0.0", want: true},
		{in: "1.0", want: true},
		{in: "1.9.0", want: false},
		{in: "2.0.0", want: false},
		{in: "0.9.0", want: false},
		{in: "latest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CompatibleFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
