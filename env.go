package bootstrap

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
)

// Env is the environment the bootstrap steps operate on.
//
// Steps never touch the process environment; they read and update this value
// instead and every command they run receives [Env.Environ]. The search path
// is kept apart from the other variables since it's the one steps care about.
type Env struct {
	GOOS string
	Home string

	SearchPath []string
	Vars       map[string]string
}

// ProcessEnv captures the environment of the current process.
func ProcessEnv() *Env {
	home, _ := os.UserHomeDir()
	return NewEnv(runtime.GOOS, home, os.Environ())
}

// NewEnv builds an environment for goos from a list of NAME=value entries.
// The search path is taken from PATH, matched case insensitively on windows.
func NewEnv(goos, home string, environ []string) *Env {
	env := Env{
		GOOS: goos,
		Home: home,
		Vars: make(map[string]string, len(environ)),
	}

	for _, entry := range environ {
		name, value, found := strings.Cut(entry, "=")
		if !found || name == "" {
			continue
		}

		if env.isPathVar(name) {
			env.SearchPath = env.splitList(value)
			continue
		}

		env.Vars[name] = value
	}

	return &env
}

func (e *Env) isPathVar(name string) bool {
	if e.GOOS == "windows" {
		return strings.EqualFold(name, "PATH")
	}
	return name == "PATH"
}

func (e *Env) listSeparator() string {
	if e.GOOS == "windows" {
		return ";"
	}
	return ":"
}

func (e *Env) splitList(value string) []string {
	var dirs []string
	for _, dir := range strings.Split(value, e.listSeparator()) {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Get returns the value of a variable other than PATH.
func (e *Env) Get(name string) string {
	return e.Vars[name]
}

// Set assigns a variable; assigning PATH replaces the search path.
func (e *Env) Set(name, value string) {
	if e.isPathVar(name) {
		e.SearchPath = e.splitList(value)
		return
	}
	e.Vars[name] = value
}

// AppendPath adds dir to the end of the search path unless it's already present.
func (e *Env) AppendPath(dir string) {
	if e.OnSearchPath(dir) {
		return
	}
	e.SearchPath = append(e.SearchPath, dir)
}

// OnSearchPath reports whether dir is one of the search path entries.
func (e *Env) OnSearchPath(dir string) bool {
	want := e.normalize(dir)
	return slices.ContainsFunc(e.SearchPath, func(entry string) bool {
		return e.normalize(entry) == want
	})
}

func (e *Env) normalize(dir string) string {
	dir = filepath.Clean(dir)
	if e.GOOS == "windows" {
		dir = strings.ToLower(strings.TrimRight(dir, `\/`))
	}
	return dir
}

// Lookup resolves a bare executable name against the search path.
// On windows names without an extension are also tried with the PATHEXT
// extensions. Relative search path entries are ignored.
func (e *Env) Lookup(name string) (string, bool) {
	candidates := []string{name}
	if e.GOOS == "windows" && filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range e.executableExtensions() {
			candidates = append(candidates, name+ext)
		}
	}

	for _, dir := range e.SearchPath {
		if !filepath.IsAbs(dir) && !(e.GOOS == "windows" && isWindowsAbs(dir)) {
			continue
		}
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			if e.executable(path) {
				return path, true
			}
		}
	}

	return "", false
}

func (e *Env) executableExtensions() []string {
	pathext := ""
	for name, value := range e.Vars {
		if strings.EqualFold(name, "PATHEXT") {
			pathext = value
		}
	}
	if pathext == "" {
		return []string{".exe", ".cmd", ".bat", ".com"}
	}

	var exts []string
	for _, ext := range strings.Split(strings.ToLower(pathext), ";") {
		if ext != "" && strings.HasPrefix(ext, ".") {
			exts = append(exts, ext)
		}
	}
	return exts
}

func (e *Env) executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if e.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// isWindowsAbs accepts drive letter paths like C:\Go\bin even when the
// host running the code isn't windows.
func isWindowsAbs(dir string) bool {
	return len(dir) >= 3 && dir[1] == ':' && (dir[2] == '\\' || dir[2] == '/')
}

// Environ renders the environment as NAME=value entries, sorted by name,
// with the search path joined into PATH.
func (e *Env) Environ() []string {
	environ := make([]string, 0, len(e.Vars)+1)
	for name, value := range e.Vars {
		environ = append(environ, name+"="+value)
	}
	sort.Strings(environ)

	return append(environ, "PATH="+strings.Join(e.SearchPath, e.listSeparator()))
}
