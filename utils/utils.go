package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kballard/go-shellquote"
)

const (
	DefaultBinMarker = "concoct_bins"
	DefaultMinLength = 500
	DefaultThreads   = 4
	DefaultMaxPoints = 20000
)

// HitGroup is one set of code-table hit files merged into a single report.
type HitGroup struct {
	Name   string   `toml:"name"`
	Output string   `toml:"output"`
	Files  []string `toml:"files"`
}

type Config struct {
	BaseDir   string `toml:"base_dir"`
	OutputDir string `toml:"output_dir"`
	BinMarker string `toml:"bin_marker"`
	MinLength int    `toml:"min_length"`
	Threads   int    `toml:"threads"`
	MaxPoints int    `toml:"max_points"`
	HTML      bool   `toml:"html"`

	HitsDir  string     `toml:"hits_dir"`
	MoveDest string     `toml:"move_dest"`
	Groups   []HitGroup `toml:"group"`
	Moves    []string   `toml:"move"`
}

func defaultConfig() Config {
	return Config{
		OutputDir: ".",
		BinMarker: DefaultBinMarker,
		MinLength: DefaultMinLength,
		Threads:   DefaultThreads,
		MaxPoints: DefaultMaxPoints,
	}
}

// ReadConfig reads a "key: value" config file, or a TOML file when the name
// ends in .toml. Unset keys keep their defaults.
func ReadConfig(configPath string) (Config, error) {
	if strings.ToLower(filepath.Ext(configPath)) == ".toml" {
		cfg := defaultConfig()
		if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding %s: %w", configPath, err)
		}
		return cfg, nil
	}

	configFile, err := os.Open(configPath)
	if err != nil {
		return Config{}, err
	}
	defer configFile.Close()
	cfg := defaultConfig()

	scanner := bufio.NewScanner(configFile)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "BaseDir":
			cfg.BaseDir = value
		case "OutputDir":
			cfg.OutputDir = value
		case "BinMarker":
			cfg.BinMarker = value
		case "MinLength":
			if cfg.MinLength, err = strconv.Atoi(value); err != nil {
				return cfg, fmt.Errorf("line %d: MinLength: %w", lineNo, err)
			}
		case "threads":
			if cfg.Threads, err = strconv.Atoi(value); err != nil {
				return cfg, fmt.Errorf("line %d: threads: %w", lineNo, err)
			}
		case "MaxPoints":
			if cfg.MaxPoints, err = strconv.Atoi(value); err != nil {
				return cfg, fmt.Errorf("line %d: MaxPoints: %w", lineNo, err)
			}
		case "html":
			if cfg.HTML, err = strconv.ParseBool(value); err != nil {
				return cfg, fmt.Errorf("line %d: html: %w", lineNo, err)
			}
		case "HitsDir":
			cfg.HitsDir = value
		case "MoveDest":
			cfg.MoveDest = value
		case "group":
			// group: <name> <output> <file> [<file> ...]
			words, qErr := shellquote.Split(value)
			if qErr != nil {
				return cfg, fmt.Errorf("line %d: group: %w", lineNo, qErr)
			}
			if len(words) < 3 {
				return cfg, fmt.Errorf("line %d: group needs a name, an output and at least one file", lineNo)
			}
			cfg.Groups = append(cfg.Groups, HitGroup{Name: words[0], Output: words[1], Files: words[2:]})
		case "move":
			words, qErr := shellquote.Split(value)
			if qErr != nil {
				return cfg, fmt.Errorf("line %d: move: %w", lineNo, qErr)
			}
			cfg.Moves = append(cfg.Moves, words...)
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil

}
