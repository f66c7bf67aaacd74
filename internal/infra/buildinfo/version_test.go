package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	i := Get()
	if i.Version == "" || i.Commit == "" || i.BuildTime == "" {
		t.Errorf("Get() has empty fields: %+v", i)
	}
	if !strings.HasPrefix(i.GoVersion, "go") {
		t.Errorf("GoVersion = %q", i.GoVersion)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.Contains(s, Get().Version) || !strings.Contains(s, "built at") {
		t.Errorf("String() = %q", s)
	}
}

func TestFillFromBuildInfo(t *testing.T) {
	tests := []struct {
		name string
		in   Info
		bi   debug.BuildInfo
		want Info
	}{
		{
			name: "fills unset fields",
			in:   Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
			bi: debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef0123"},
					{Key: "vcs.time", Value: "2025-01-01T00:00:00Z"},
				},
			},
			want: Info{Version: "v1.2.3", Commit: "0123456789ab", BuildTime: "2025-01-01T00:00:00Z"},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "v9", Commit: "abc", BuildTime: "now"},
			bi: debug.BuildInfo{
				Main:     debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "zzz"}},
			},
			want: Info{Version: "v9", Commit: "abc", BuildTime: "now"},
		},
		{
			name: "devel main version ignored",
			in:   Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
			bi:   debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want: Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			bi := tt.bi
			fillFromBuildInfo(&got, &bi)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
