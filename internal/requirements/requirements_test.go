package requirements

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const manifest = `# API stack
fastapi==0.110.0
uvicorn[standard]>=0.29 ; python_version >= "3.8"
pydantic_settings
SQLAlchemy~=2.0   # ORM
redis

-r base.txt
--index-url https://pypi.org/simple
-e git+https://example.com/lib.git#egg=lib
APScheduler \
    ==3.10.4
yfinance @ https://example.com/yfinance-0.2.tar.gz#sha256=abc
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(manifest))
	require.NoError(t, err)
	reqs := m.Requirements

	got := make([]string, 0, len(reqs))
	for _, r := range reqs {
		got = append(got, r.Normalized)
	}
	require.Equal(t, []string{
		"fastapi", "uvicorn", "pydantic-settings", "sqlalchemy", "redis", "lib", "apscheduler", "yfinance",
	}, got)
	require.Empty(t, m.Unnamed)

	require.Equal(t, "[standard]>=0.29", reqs[1].Spec)
	require.Equal(t, `python_version >= "3.8"`, reqs[1].Marker)
	require.True(t, reqs[1].Conditional())
	require.Equal(t, 3, reqs[1].Line)
	require.Equal(t, "~=2.0", reqs[3].Spec)
	require.False(t, reqs[3].Conditional())
	require.Equal(t, "git+https://example.com/lib.git#egg=lib", reqs[5].Spec)
	require.Equal(t, 11, reqs[6].Line, "continuation keeps the first line number")
	require.Contains(t, reqs[7].Spec, "#sha256=abc", "URL fragments are not comments")
}

func TestParse_Entries(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    string // normalized name, empty when the entry is unnamed
		marker  string
		unnamed string
	}{
		{name: "marker", line: `pywin32 ; sys_platform == "win32"`, want: "pywin32", marker: `sys_platform == "win32"`},
		{name: "marker without spaces", line: `pywin32;sys_platform=="win32"`, want: "pywin32", marker: `sys_platform=="win32"`},
		{name: "specifier and marker", line: `numpy>=1.26; python_version >= "3.9"`, want: "numpy", marker: `python_version >= "3.9"`},
		{name: "wheel URL", line: "https://files.example.com/foo-1.0-py3-none-any.whl", unnamed: "https://files.example.com/foo-1.0-py3-none-any.whl"},
		{name: "VCS URL with egg", line: "git+https://example.com/foo.git@v1.2#egg=foo", want: "foo"},
		{name: "URL with egg and subdirectory", line: "git+https://example.com/mono.git#egg=Foo_Bar&subdirectory=pkg", want: "foo-bar"},
		{name: "URL with marker", line: `https://example.com/foo.tar.gz#egg=foo ; sys_platform == "linux"`, want: "foo", marker: `sys_platform == "linux"`},
		{name: "relative path", line: "./libs/foo", unnamed: "./libs/foo"},
		{name: "parent path", line: "../shared", unnamed: "../shared"},
		{name: "absolute path", line: "/opt/wheels/bar", unnamed: "/opt/wheels/bar"},
		{name: "local archive", line: "dist/bar-2.0.tar.gz", unnamed: "dist/bar-2.0.tar.gz"},
		{name: "editable path", line: "-e ./libs/foo", unnamed: "./libs/foo"},
		{name: "editable VCS with egg", line: "--editable=git+https://example.com/baz.git#egg=baz", want: "baz"},
		{name: "file URL", line: "file:///srv/pkgs/qux", unnamed: "file:///srv/pkgs/qux"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(strings.NewReader(tt.line + "\n"))
			require.NoError(t, err)

			if tt.unnamed != "" {
				require.Empty(t, m.Requirements)
				require.Equal(t, []Unnamed{{Location: tt.unnamed, Line: 1}}, m.Unnamed)
				return
			}
			require.Empty(t, m.Unnamed)
			require.Len(t, m.Requirements, 1)
			require.Equal(t, tt.want, m.Requirements[0].Normalized)
			require.Equal(t, tt.marker, m.Requirements[0].Marker)
		})
	}
}

func TestParse_InvalidLine(t *testing.T) {
	_, err := Parse(strings.NewReader("fastapi\n==1.0\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestParse_TrailingContinuation(t *testing.T) {
	m, err := Parse(strings.NewReader("httpx \\"))
	require.NoError(t, err)
	require.Len(t, m.Requirements, 1)
	require.Equal(t, "httpx", m.Requirements[0].Name)
}

func TestNormalize(t *testing.T) {
	for in, want := range map[string]string{
		"Django":            "django",
		"pydantic_settings": "pydantic-settings",
		"zope.interface":    "zope-interface",
		"Foo__Bar-.baz":     "foo-bar-baz",
	} {
		require.Equal(t, want, Normalize(in), in)
	}
}

func TestMissing(t *testing.T) {
	m, err := Parse(strings.NewReader("FastAPI\npydantic_settings\nredis\n"))
	require.NoError(t, err)
	reqs := m.Requirements

	missing := Missing(reqs, []string{"fastapi", "pydantic-settings", "starlette"})
	require.Equal(t, []string{"redis"}, Names(missing))

	require.Empty(t, Missing(reqs, []string{"Redis", "fastapi", "Pydantic.Settings"}))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("fastapi\n"), 0o600))

	m, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"fastapi"}, Names(m.Requirements))

	_, err = ParseFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
