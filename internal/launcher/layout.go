package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
)

// Fixed names and server address. None of these are configurable.
const (
	EnvDirName   = "venv"
	ManifestName = "requirements.txt"
	ServerHost   = "0.0.0.0"
	ServerPort   = 8000
)

// Layout holds the resolved paths the launcher works with.
type Layout struct {
	WorkDir  string
	EnvDir   string
	BinDir   string
	Manifest string
	Python   string
	Pip      string
	Uvicorn  string
}

// NewLayout resolves the layout under workDir for the running platform.
func NewLayout(workDir string) (Layout, error) {
	return newLayout(workDir, runtime.GOOS)
}

func newLayout(workDir, goos string) (Layout, error) {
	if workDir == "" {
		workDir = "."
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return Layout{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve work dir").
			WithContext("path", workDir).
			Build()
	}

	envDir := filepath.Join(abs, EnvDirName)
	binDir, exe := filepath.Join(envDir, "bin"), ""
	if goos == "windows" {
		binDir, exe = filepath.Join(envDir, "Scripts"), ".exe"
	}

	return Layout{
		WorkDir:  abs,
		EnvDir:   envDir,
		BinDir:   binDir,
		Manifest: filepath.Join(abs, ManifestName),
		Python:   filepath.Join(binDir, "python"+exe),
		Pip:      filepath.Join(binDir, "pip"+exe),
		Uvicorn:  filepath.Join(binDir, "uvicorn"+exe),
	}, nil
}

// ServerSpec is the fixed server invocation.
type ServerSpec struct {
	App    string
	Host   string
	Port   int
	Reload bool
}

// Addr returns host:port.
func (s ServerSpec) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// Args renders the uvicorn command-line arguments.
func (s ServerSpec) Args() []string {
	args := []string{s.App}
	if s.Reload {
		args = append(args, "--reload")
	}
	return append(args, "--host", s.Host, "--port", strconv.Itoa(s.Port))
}

func (s ServerSpec) String() string {
	return fmt.Sprintf("%s on %s (reload=%t)", s.App, s.Addr(), s.Reload)
}

// isDir mirrors `test -d`: any stat failure counts as absent.
func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// isFile mirrors `test -f`.
func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
