// Package skills loads SKILL.md documents and gates them on quality. A skill
// is a directory containing a SKILL.md file with YAML frontmatter followed
// by a markdown body of instructions.
package skills

// Skill is a loaded SKILL.md
type Skill struct {
	Name        string // from frontmatter, possibly prefixed by discovery
	Description string
	Directory   string // directory holding SKILL.md
	Path        string // full path of SKILL.md
	Content     string // markdown body without frontmatter

	Metadata Metadata
	// Frontmatter is the raw decoded frontmatter mapping
	Frontmatter map[string]any

	// Raw is the whole normalized file
	Raw string
	// FrontmatterStart and FrontmatterEnd are the 1-indexed lines of the
	// opening and closing delimiters.
	FrontmatterStart int
	FrontmatterEnd   int
	// BodyLine is the file line on which Content starts
	BodyLine int
}

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name          string         `mapstructure:"name"`
	Description   string         `mapstructure:"description"`
	License       string         `mapstructure:"license"`
	AllowedTools  []string       `mapstructure:"allowed-tools"`
	Compatibility string         `mapstructure:"compatibility"`
	Metadata      map[string]any `mapstructure:"metadata"`
}
