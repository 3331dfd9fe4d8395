package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// ResolvePath maps a skill directory to its SKILL.md; file paths are
// returned unchanged.
func ResolvePath(pathLike string) string {
	if info, err := os.Stat(pathLike); err == nil && info.IsDir() {
		return filepath.Join(pathLike, skillFileName)
	}
	return pathLike
}

// Load reads and parses a skill. With strictLine1 the opening "---" must be
// the first line; otherwise it must be the first non-blank line. Malformed
// frontmatter is reported as a spec.StructuralError.
func Load(pathLike string, strictLine1 bool) (*Skill, error) {
	path := ResolvePath(pathLike)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("SKILL.md not found at: %s", path)
		}
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	s, err := Parse(string(content), strictLine1)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.Path = abs
	s.Directory = filepath.Dir(abs)
	return s, nil
}

// Parse parses SKILL.md content
func Parse(content string, strictLine1 bool) (*Skill, error) {
	raw := markdown.Normalize(content)
	if strings.TrimSpace(raw) == "" {
		return nil, spec.Structuralf(0, "SKILL.md is empty")
	}
	lines := strings.SplitAfter(raw, "\n")

	start := 0
	if !strictLine1 {
		for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
			start++
		}
	}
	if !isDelimiter(lines[start]) {
		if strictLine1 {
			return nil, spec.Structuralf(1, "frontmatter must start on line 1 with `---`")
		}
		return nil, spec.Structuralf(start+1, "missing YAML frontmatter; expected `---` as first non-empty line")
	}

	end := -1
	for j := start + 1; j < len(lines); j++ {
		if isDelimiter(lines[j]) {
			end = j
			break
		}
	}
	if end < 0 {
		return nil, spec.Structuralf(start+1, "unterminated YAML frontmatter; missing closing `---`")
	}

	yamlText := strings.Join(lines[start+1:end], "")
	if strings.Contains(yamlText, "\t") {
		return nil, spec.Structuralf(start+2, "frontmatter YAML must use spaces (tabs found)")
	}

	fm, err := decodeFrontmatter(strings.Join(lines[start:end+1], ""))
	if err != nil {
		return nil, spec.Structuralf(start+1, "invalid YAML in frontmatter: %v", err)
	}

	var md Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create frontmatter decoder")
	}
	if err := decoder.Decode(fm); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	rest := strings.Join(lines[end+1:], "")
	body := strings.TrimLeft(rest, "\n")
	bodyLine := end + 2 + (len(rest) - len(body))

	return &Skill{
		Name:             md.Name,
		Description:      md.Description,
		Content:          body,
		Metadata:         md,
		Frontmatter:      fm,
		Raw:              raw,
		FrontmatterStart: start + 1,
		FrontmatterEnd:   end + 1,
		BodyLine:         bodyLine,
	}, nil
}

func isDelimiter(line string) bool {
	return strings.TrimSpace(line) == "---"
}

// decodeFrontmatter runs the delimited block through goldmark-meta
func decodeFrontmatter(block string) (map[string]any, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(block), &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	data, err := meta.TryGet(pctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
