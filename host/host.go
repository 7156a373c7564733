// Package host resolves which platform the bootstrap is running on.
//
// The identity is resolved once at startup and then drives which toolchain
// installation strategy is used. Linux distributions are told apart by the
// marker files their base packages ship under /etc.
package host

import (
	"bufio"
	"bytes"
	"io/fs"
	"strings"
)

// Identity is the host family the bootstrap knows how to handle.
type Identity int

const (
	Unsupported Identity = iota
	Debian
	Ubuntu
	RedHat
	Arch
	Windows
)

func (i Identity) String() string {
	switch i {
	case Debian:
		return "debian"
	case Ubuntu:
		return "ubuntu"
	case RedHat:
		return "redhat"
	case Arch:
		return "arch"
	case Windows:
		return "windows"
	default:
		return "unsupported"
	}
}

// Detect returns the identity of the host described by goos and the root
// filesystem fsys. Paths inside fsys are relative to "/", so on a real
// machine pass os.DirFS("/").
//
// Ubuntu ships /etc/debian_version too, so it is checked first.
func Detect(goos string, fsys fs.FS) Identity {
	switch goos {
	case "windows":
		return Windows
	case "linux":
	default:
		return Unsupported
	}

	if isUbuntu(fsys) {
		return Ubuntu
	}

	switch {
	case exists(fsys, "etc/debian_version"):
		return Debian
	case exists(fsys, "etc/redhat-release"), exists(fsys, "etc/fedora-release"):
		return RedHat
	case exists(fsys, "etc/arch-release"):
		return Arch
	}

	return Unsupported
}

func isUbuntu(fsys fs.FS) bool {
	if value, ok := keyvalue(fsys, "etc/lsb-release", "DISTRIB_ID"); ok && strings.EqualFold(value, "ubuntu") {
		return true
	}
	if value, ok := keyvalue(fsys, "etc/os-release", "ID"); ok && strings.EqualFold(value, "ubuntu") {
		return true
	}
	return false
}

// keyvalue reads a shell style KEY=value file and returns the unquoted value for key.
func keyvalue(fsys fs.FS, path, key string) (string, bool) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", false
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		name, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !found || name != key {
			continue
		}
		return strings.Trim(value, `"'`), true
	}

	return "", false
}

func exists(fsys fs.FS, path string) bool {
	_, err := fs.Stat(fsys, path)
	return err == nil
}
