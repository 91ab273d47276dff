// Package tsc is the concrete C front end shipped with this module: a
// frontend.Parser backed by tree-sitter's C grammar rather than libclang.
// Canonical type identity — normally a semantic front-end responsibility —
// is approximated structurally: two specifiers are the same canonical type
// within a TU iff they are the same CST node, identified by its byte
// offsets.
package tsc

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/cfinddev/cfind/internal/frontend"
)

// Parser parses C translation units with a pooled tree-sitter parser
// (parsers are not safe for concurrent use, matching the one-goroutine
// indexing model in §5).
type Parser struct {
	pool sync.Pool
}

// New returns a ready-to-use Parser.
func New() *Parser {
	p := &Parser{}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(c.GetLanguage())
		return sp
	}
	return p
}

var _ frontend.Parser = (*Parser)(nil)

var includeRe = regexp.MustCompile(`^\s*#\s*include\s*"([^"]+)"`)

// Parse reads path, parses it with the C grammar, and returns a cursor
// positioned at the translation-unit root plus the list of quote-form
// #include targets found by a line scan (angle-bracket system includes
// aren't resolvable to a file on disk and are skipped).
func (p *Parser) Parse(path string) (frontend.Cursor, []string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	obj := p.pool.Get()
	sp, ok := obj.(*sitter.Parser)
	if !ok {
		return nil, nil, fmt.Errorf("tsc: unexpected pool object type")
	}
	defer p.pool.Put(sp)

	tree, err := sp.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	includes, err := scanIncludes(path)
	if err != nil {
		return nil, nil, err
	}

	return newCursor(tree.RootNode(), src), includes, nil
}

func scanIncludes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if m := includeRe.FindStringSubmatch(sc.Text()); m != nil {
			out = append(out, m[1])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning includes in %s: %w", path, err)
	}
	return out, nil
}
