package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

type GameConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type GamesConfig struct {
	Games []GameConfig `yaml:"games"`
}

// GamesCatalog is the set of games customers may top up, matched case-insensitively
type GamesCatalog struct {
	names map[string]string
}

// LoadGames reads the catalog file. An empty path means no catalog and
// returns nil so any game name is accepted.
func LoadGames(gamesFile string) (*GamesCatalog, error) {
	if gamesFile == "" {
		return nil, nil
	}

	var gamesPath string
	if filepath.IsAbs(gamesFile) {
		gamesPath = gamesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		gamesPath = filepath.Join(wd, gamesFile)
	}

	data, err := os.ReadFile(gamesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", gamesFile, err)
	}

	return ParseGames(data)
}

func ParseGames(data []byte) (*GamesCatalog, error) {
	var config GamesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse games catalog: %w", err)
	}

	if len(config.Games) == 0 {
		return nil, fmt.Errorf("games catalog is empty")
	}

	catalog := &GamesCatalog{names: make(map[string]string)}
	for i, game := range config.Games {
		name := strings.TrimSpace(game.Name)
		if name == "" {
			return nil, fmt.Errorf("game at index %d missing name", i)
		}
		for _, key := range append([]string{name}, game.Aliases...) {
			key = normalizeGame(key)
			if key == "" {
				continue
			}
			if existing, ok := catalog.names[key]; ok && existing != name {
				return nil, fmt.Errorf("game %q conflicts with %q", key, existing)
			}
			catalog.names[key] = name
		}
	}

	return catalog, nil
}

func (g *GamesCatalog) Contains(game string) bool {
	if g == nil {
		return true
	}
	_, ok := g.names[normalizeGame(game)]
	return ok
}

// Canonical returns the catalog spelling of a game name or alias
func (g *GamesCatalog) Canonical(game string) (string, bool) {
	if g == nil {
		return game, true
	}
	name, ok := g.names[normalizeGame(game)]
	return name, ok
}

// Names lists the distinct catalog games in sorted order
func (g *GamesCatalog) Names() []string {
	if g == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, name := range g.names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *GamesCatalog) Len() int {
	return len(g.Names())
}

func normalizeGame(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
