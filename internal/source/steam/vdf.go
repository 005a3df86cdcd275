package steam

import (
	"fmt"
	"strings"
)

// KeyValues is a parsed Valve KeyValues (VDF) block: values are either
// strings or nested KeyValues
type KeyValues map[string]any

// Block returns the nested block under key, matched case-insensitively
func (kv KeyValues) Block(key string) (KeyValues, bool) {
	v, ok := kv.lookup(key)
	if !ok {
		return nil, false
	}
	block, ok := v.(KeyValues)
	return block, ok
}

// String returns the string value under key, matched case-insensitively
func (kv KeyValues) String(key string) (string, bool) {
	v, ok := kv.lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (kv KeyValues) lookup(key string) (any, bool) {
	if v, ok := kv[key]; ok {
		return v, true
	}
	for k, v := range kv {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// ParseVDF parses VDF text such as libraryfolders.vdf or an appmanifest
func ParseVDF(data string) (KeyValues, error) {
	p := &vdfParser{src: data}
	root, err := p.block(false)
	if err != nil {
		return nil, err
	}
	return root, nil
}

type vdfParser struct {
	src  string
	pos  int
	line int
}

// block reads key/value pairs until a closing brace (nested) or end of input
func (p *vdfParser) block(nested bool) (KeyValues, error) {
	kv := make(KeyValues)
	for {
		tok, quoted, err := p.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok == "" && !quoted:
			if nested {
				return nil, p.errorf("unexpected end of input, missing '}'")
			}
			return kv, nil
		case tok == "}" && !quoted:
			if !nested {
				return nil, p.errorf("unexpected '}'")
			}
			return kv, nil
		case tok == "{" && !quoted:
			return nil, p.errorf("expected key, got '{'")
		}

		key := tok
		val, valQuoted, err := p.next()
		if err != nil {
			return nil, err
		}
		switch {
		case val == "{" && !valQuoted:
			child, err := p.block(true)
			if err != nil {
				return nil, err
			}
			kv[key] = child
		case val == "" && !valQuoted, val == "}" && !valQuoted:
			return nil, p.errorf("missing value for key %q", key)
		default:
			kv[key] = val
		}
	}
}

// next returns the next token. Quoted strings have escapes resolved; an
// empty unquoted token means end of input.
func (p *vdfParser) next() (string, bool, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.src) {
		return "", false, nil
	}

	c := p.src[p.pos]
	switch c {
	case '{', '}':
		p.pos++
		return string(c), false, nil
	case '"':
		return p.quoted()
	}

	start := p.pos
	for p.pos < len(p.src) && !isVDFSpace(p.src[p.pos]) && !strings.ContainsRune(`"{}`, rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos], false, nil
}

func (p *vdfParser) quoted() (string, bool, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), true, nil
		case '\\':
			if p.pos+1 < len(p.src) {
				p.pos++
				switch esc := p.src[p.pos]; esc {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(esc)
				}
				p.pos++
				continue
			}
		case '\n':
			p.line++
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", false, p.errorf("unterminated quoted string")
}

func (p *vdfParser) skipSpaceAndComments() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\n':
			p.line++
			p.pos++
		case isVDFSpace(c):
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "//"):
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *vdfParser) errorf(format string, args ...any) error {
	return fmt.Errorf("vdf line %d: %s", p.line+1, fmt.Sprintf(format, args...))
}

func isVDFSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// libraryPaths extracts library paths from a parsed libraryfolders.vdf in
// numeric key order. Old files map the index straight to a path.
func libraryPaths(root KeyValues) []string {
	folders, ok := root.Block("libraryfolders")
	if !ok {
		return nil
	}

	var paths []string
	for i := 0; ; i++ {
		key := fmt.Sprintf("%d", i)
		if entry, ok := folders.Block(key); ok {
			if path, ok := entry.String("path"); ok && path != "" {
				paths = append(paths, path)
			}
			continue
		}
		if path, ok := folders.String(key); ok && path != "" {
			paths = append(paths, path)
			continue
		}
		break
	}
	return paths
}

// AppManifest holds parsed fields from an appmanifest_*.acf file
type AppManifest struct {
	AppID      string
	Name       string
	InstallDir string
}

// ParseAppManifest parses appmanifest_*.acf content
func ParseAppManifest(data string) (AppManifest, error) {
	root, err := ParseVDF(data)
	if err != nil {
		return AppManifest{}, err
	}
	state, ok := root.Block("AppState")
	if !ok {
		return AppManifest{}, fmt.Errorf("vdf: missing AppState")
	}

	var m AppManifest
	m.AppID, _ = state.String("appid")
	m.Name, _ = state.String("name")
	m.InstallDir, _ = state.String("installdir")
	return m, nil
}
