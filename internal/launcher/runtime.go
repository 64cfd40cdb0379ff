package launcher

import (
	"os"

	"git.home.luguber.info/inful/pyboot/internal/process"
)

// systemInterpreters is the discovery order when no interpreter is configured.
var systemInterpreters = []string{"python3", "python"}

// systemPython resolves the interpreter used to create the environment.
func (l *Launcher) systemPython() (string, error) {
	if l.cfg.Python != "" {
		return l.lookPath(l.cfg.Python)
	}

	var firstErr error
	for _, name := range systemInterpreters {
		path, err := l.lookPath(name)
		if err == nil {
			return path, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

// activatedEnv reproduces what sourcing the venv's activate script does to the
// environment: VIRTUAL_ENV set, the bin dir first on PATH, PYTHONHOME unset.
func (l *Launcher) activatedEnv() []string {
	env := process.RemoveEnv(l.environ(), "PYTHONHOME")

	path := l.layout.BinDir
	if old, ok := process.LookupEnv(env, "PATH"); ok && old != "" {
		path += string(os.PathListSeparator) + old
	}
	return process.MergeEnv(env, map[string]string{
		"VIRTUAL_ENV": l.layout.EnvDir,
		"PATH":        path,
	}, true)
}
