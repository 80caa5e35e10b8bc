package config

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr string `yaml:"listen_addr"`
	ContentDir string `yaml:"content_dir"`
	WebDir     string `yaml:"web_dir"`
	Encoding   string `yaml:"encoding"`
}

func DefaultSettings() Settings {
	return Settings{
		ListenAddr: ":8000",
		WebDir:     "web",
	}
}

// remembered by LoadSettings so the editor can persist changes made
// at runtime back to the same file
var loadedPath string
var current Settings = DefaultSettings()

func Current() Settings {
	return current
}

// ApplyEncoding switches the name charmap and persists the choice to
// the loaded settings file.
func ApplyEncoding(name string) error {
	if err := SetEncoding(name); err != nil {
		return err
	}
	current.Encoding = name
	if loadedPath == "" {
		return nil
	}
	return SaveSettings(loadedPath, current)
}

// LoadSettings reads a yaml settings file. A missing file is not an
// error, the defaults are returned instead.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	loadedPath = path

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			current = s
			return s, nil
		}
		return s, errors.Wrapf(err, "Failed to read settings %q", path)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "Failed to parse settings %q", path)
	}

	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return s, err
		}
	}

	current = s
	return s, nil
}

func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal settings")
	}
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "Failed to write settings %q", path)
	}
	return nil
}
