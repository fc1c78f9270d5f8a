package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// These tests mutate package state and must not run in parallel.

func TestGet(t *testing.T) {
	tests := []struct {
		name                     string
		ver, com, bt             string
		wantVer, wantCom, wantBt string
	}{
		{
			name:    "defaults when nothing injected",
			wantVer: DefaultVersion, wantCom: DefaultCommit, wantBt: DefaultBuildTime,
		},
		{
			name: "all injected",
			ver:  "v1.2.0", com: "abc123", bt: "2026-01-01T00:00:00Z",
			wantVer: "v1.2.0", wantCom: "abc123", wantBt: "2026-01-01T00:00:00Z",
		},
		{
			name:    "only version",
			ver:     "v2.0.0",
			wantVer: "v2.0.0", wantCom: DefaultCommit, wantBt: DefaultBuildTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetBuildVars(tt.ver, tt.com, tt.bt)
			t.Cleanup(ResetBuildVars)

			info := Get()
			assert.Equal(t, tt.wantVer, info.Version)
			assert.Equal(t, tt.wantCom, info.Commit)
			assert.Equal(t, tt.wantBt, info.BuildTime)
		})
	}
}

func TestInfo_UserAgent(t *testing.T) {
	SetBuildVars("v1.2.0", "", "")
	t.Cleanup(ResetBuildVars)

	assert.Equal(t, "codesearch-client/v1.2.0", Get().UserAgent())
}

func TestInfo_FormatFull(t *testing.T) {
	SetBuildVars("v1.2.0", "abc123", "2026-01-01T00:00:00Z")
	t.Cleanup(ResetBuildVars)

	assert.Equal(t, "codesearch\nVersion: v1.2.0\nCommit: abc123\nBuilt: 2026-01-01T00:00:00Z\n", Get().FormatFull())
}

func TestInfo_IsDevelopment(t *testing.T) {
	assert.True(t, Info{Version: DefaultVersion}.IsDevelopment())
	assert.False(t, Info{Version: "v1.0.0"}.IsDevelopment())
}
