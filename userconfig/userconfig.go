// Package userconfig seeds the mosint configuration file.
//
// The file is only ever created, never rewritten: an operator who already
// filled in their api keys keeps them across bootstrap runs.
package userconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file mosint reads from the home directory.
const FileName = ".mosint.yaml"

// Placeholder is written in place of every api key.
const Placeholder = "SET_YOUR_API_KEY_HERE"

type Document struct {
	Services Services `yaml:"services"`
	Settings Settings `yaml:"settings"`
}

type Services struct {
	BreachDirectoryAPIKey string `yaml:"breach_directory_api_key"`
	EmailRepAPIKey        string `yaml:"emailrep_api_key"`
	HunterAPIKey          string `yaml:"hunter_api_key"`
	IntelXAPIKey          string `yaml:"intelx_api_key"`
	HaveIBeenPwnedAPIKey  string `yaml:"haveibeenpwned_api_key"`
}

type Settings struct {
	IntelXMaxResults int `yaml:"intelx_max_results"`
}

// Default returns the template written on first install.
func Default() Document {
	return Document{
		Services: Services{
			BreachDirectoryAPIKey: Placeholder,
			EmailRepAPIKey:        Placeholder,
			HunterAPIKey:          Placeholder,
			IntelXAPIKey:          Placeholder,
			HaveIBeenPwnedAPIKey:  Placeholder,
		},
		Settings: Settings{
			IntelXMaxResults: 20,
		},
	}
}

// Encode renders the document the way mosint expects it, two space indented.
func (d Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes the document into w.
func (d Document) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultPath returns the config location inside home.
func DefaultPath(home string) string {
	return filepath.Join(home, FileName)
}

// Seed writes the default document to path unless a file already exists there.
// It reports whether the file was created.
func Seed(path string) (bool, error) {
	return create(path, Default().Write)
}

// create runs write against a new file at path. A failed write removes the
// file again, so the next run can seed it.
func create(path string, write func(w io.Writer) error) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config folder: %w", err)
	}

	// O_EXCL makes the existence check and the creation a single step
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}

	err = write(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return true, nil
}
