package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Discovery finds skills in configured directories. Each immediate
// subdirectory holding a SKILL.md is one skill.
type Discovery struct {
	skillDirs []string
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs sets custom skill directories
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = dirs
		return nil
	}
}

// WithDefaultDirs initializes with default skill directories
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		d.skillDirs = []string{
			"./skills",
			"./.specforge/skills", // Repo-local
			filepath.Join(homeDir, ".specforge", "skills"),
		}
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}

	if len(opts) == 0 {
		opts = []Option{WithDefaultDirs()}
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Dirs returns the directories searched, in precedence order
func (d *Discovery) Dirs() []string {
	return d.skillDirs
}

// DiscoverSkills finds all available skills. When two directories define
// the same name the earlier directory wins.
func (d *Discovery) DiscoverSkills() (map[string]*Skill, error) {
	skills := make(map[string]*Skill)
	for _, dir := range d.skillDirs {
		d.discoverSkillsFromDir(dir, skills)
	}
	return skills, nil
}

func (d *Discovery) discoverSkillsFromDir(dir string, skills map[string]*Skill) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())

		// follows symlinks
		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		skill, err := Load(filepath.Join(entryPath, skillFileName), false)
		if err != nil || skill.Name == "" || skill.Description == "" {
			continue
		}

		if _, exists := skills[skill.Name]; !exists {
			skill.Directory = entryPath
			skills[skill.Name] = skill
		}
	}
}

// GetSkill returns a specific skill by name
func (d *Discovery) GetSkill(name string) (*Skill, error) {
	skills, err := d.DiscoverSkills()
	if err != nil {
		return nil, err
	}

	skill, exists := skills[name]
	if !exists {
		return nil, errors.Errorf("skill '%s' not found", name)
	}

	return skill, nil
}

// ListSkillNames returns the sorted names of all available skills
func (d *Discovery) ListSkillNames() ([]string, error) {
	skills, err := d.DiscoverSkills()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
