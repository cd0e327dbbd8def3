package version

import (
	"errors"
	"runtime/debug"
	"testing"
)

func TestBuildNumber(t *testing.T) {
	tests := []struct {
		date    string
		want    int
		wantErr error
	}{
		{date: "2025-12-04", want: 0},
		{date: "2025-12-31", want: 27},
		{date: "2026-03-01", want: 87},
		{date: "2028-12-04", want: 1096}, // 2028 високосный
		{date: "", wantErr: ErrNoBuildDate},
		{date: "2025-11-30", wantErr: ErrBeforeFirstRelease},
		{date: "04.12.2025"},
	}

	for _, tt := range tests {
		name := tt.date
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			got, err := BuildNumber(tt.date)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.date == "04.12.2025":
				if err == nil {
					t.Fatalf("malformed date accepted as build %d", got)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("BuildNumber(%q) = %d, want %d", tt.date, got, tt.want)
				}
			}
		})
	}
}

// withBuild подменяет ldflags-переменные и vcs-штамп на время теста.
func withBuild(t *testing.T, date, commit string, settings ...debug.BuildSetting) {
	t.Helper()
	oldDate, oldCommit, oldRead := BuildDate, BuildCommit, readBuildInfo
	t.Cleanup(func() {
		BuildDate, BuildCommit, readBuildInfo = oldDate, oldCommit, oldRead
	})
	BuildDate, BuildCommit = date, commit
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
}

func TestInfo_Sources(t *testing.T) {
	t.Run("ldflags", func(t *testing.T) {
		withBuild(t, "2025-12-14", "abc",
			debug.BuildSetting{Key: "vcs.time", Value: "2026-01-01T10:00:00Z"})
		info := Info()
		if info.Source != "ldflags" || info.BuildID != 10 || info.Commit != "abc" {
			t.Errorf("Info() = %+v", info)
		}
	})

	t.Run("vcs", func(t *testing.T) {
		withBuild(t, "", "",
			debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			debug.BuildSetting{Key: "vcs.time", Value: "2025-12-06T23:30:00Z"},
			debug.BuildSetting{Key: "vcs.modified", Value: "true"})
		info := Info()
		if info.Source != "vcs" || !info.Calculated || info.BuildID != 2 || !info.Dirty {
			t.Fatalf("Info() = %+v", info)
		}
		want := "dungeon-dash-server build 2 (2025-12-06) commit[0123456789ab] branch[unknown] ci[local] dirty"
		if got := String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("none", func(t *testing.T) {
		withBuild(t, "", "")
		info := Info()
		if info.Source != "none" || info.Calculated || info.Error == "" {
			t.Errorf("Info() = %+v", info)
		}
		if got := info.Fields(); got["build_error"] == nil || got["build"] != nil {
			t.Errorf("Fields() = %v", got)
		}
	})
}

func TestVersionInfo_Fields(t *testing.T) {
	withBuild(t, "2025-12-14", "")
	f := Info().Fields()
	if f["service"] != Service || f["build"] != 10 || f["commit"] != "unknown" || f["ci"] != "local" {
		t.Errorf("Fields() = %v", f)
	}
	if _, ok := f["level"]; ok {
		t.Error("Fields() must not override the log level key")
	}
}
