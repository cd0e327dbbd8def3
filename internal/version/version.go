package version

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// Заполняются через -ldflags "-X dungeon-dash-server/internal/version.BuildDate=...".
var (
	BuildDate   string // YYYY-MM-DD, UTC
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

const Service = "dungeon-dash-server"

// firstRelease - день 0 для номера сборки.
var firstRelease = time.Date(2025, time.December, 4, 0, 0, 0, 0, time.UTC)

var (
	ErrNoBuildDate        = errors.New("build date not set")
	ErrBeforeFirstRelease = errors.New("build date before first release")
)

// VersionInfo - ответ /version.
type VersionInfo struct {
	Service   string `json:"service"`
	BuildID   int    `json:"buildId"`
	BuildDate string `json:"buildDate,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Branch    string `json:"branch,omitempty"`
	CI        string `json:"ci,omitempty"`
	GoVersion string `json:"goVersion"`
	Dirty     bool   `json:"dirty,omitempty"`
	// Source - откуда взяты дата и коммит: ldflags, vcs или none.
	Source     string `json:"source"`
	Calculated bool   `json:"calculated"`
	Error      string `json:"error,omitempty"`
}

// BuildNumber - число полных суток от firstRelease до date (YYYY-MM-DD).
func BuildNumber(date string) (int, error) {
	if date == "" {
		return 0, ErrNoBuildDate
	}
	day, err := time.ParseInLocation(time.DateOnly, date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse build date %q: %w", date, err)
	}
	if day.Before(firstRelease) {
		return 0, fmt.Errorf("%w: %s", ErrBeforeFirstRelease, date)
	}
	return int(day.Sub(firstRelease) / (24 * time.Hour)), nil
}

// CalculateBuildID - номер сборки по BuildDate.
func CalculateBuildID() (int, error) {
	return BuildNumber(BuildDate)
}

// vcsStamp достает дату и коммит, которые go build пишет в бинарь.
type vcsStamp struct {
	date, commit string
	dirty        bool
}

var readBuildInfo = debug.ReadBuildInfo

func readVCS() (vcsStamp, bool) {
	bi, ok := readBuildInfo()
	if !ok {
		return vcsStamp{}, false
	}
	var st vcsStamp
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			st.commit = s.Value
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				st.date = t.UTC().Format(time.DateOnly)
			}
		case "vcs.modified":
			st.dirty = s.Value == "true"
		}
	}
	return st, st.date != ""
}

// Info собирает сведения о сборке. ldflags главнее vcs-штампа.
func Info() VersionInfo {
	info := VersionInfo{
		Service:   Service,
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		Branch:    BuildBranch,
		CI:        BuildCI,
		GoVersion: runtime.Version(),
		Source:    "ldflags",
	}
	if info.BuildDate == "" {
		if st, ok := readVCS(); ok {
			info.BuildDate = st.date
			info.Dirty = st.dirty
			info.Source = "vcs"
			if info.Commit == "" {
				info.Commit = st.commit
			}
		} else {
			info.Source = "none"
		}
	}

	id, err := BuildNumber(info.BuildDate)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.BuildID = id
	info.Calculated = true
	return info
}

// Fields - те же сведения для стартовой записи лога.
func (v VersionInfo) Fields() logrus.Fields {
	f := logrus.Fields{
		"service":    v.Service,
		"go":         v.GoVersion,
		"source":     v.Source,
		"commit":     or(shortCommit(v.Commit), "unknown"),
		"branch":     or(v.Branch, "unknown"),
		"ci":         or(v.CI, "local"),
		"build_date": v.BuildDate,
	}
	if v.Calculated {
		f["build"] = v.BuildID
	} else {
		f["build_error"] = v.Error
	}
	if v.Dirty {
		f["dirty"] = true
	}
	return f
}

// String - одна строка для лога и -version.
func String() string {
	v := Info()
	if !v.Calculated {
		return fmt.Sprintf("%s build unknown (%s)", v.Service, v.Error)
	}
	s := fmt.Sprintf("%s build %d (%s) commit[%s] branch[%s] ci[%s]",
		v.Service, v.BuildID, v.BuildDate,
		or(shortCommit(v.Commit), "unknown"), or(v.Branch, "unknown"), or(v.CI, "local"))
	if v.Dirty {
		s += " dirty"
	}
	return s
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
