package ast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CompileCommand is one entry of a compile_commands.json file: the file it
// names is one translation unit to index. Only the fields the indexer
// actually consumes are decoded — the rest of the record (arguments,
// output) is for a compiler, not this reader.
type CompileCommand struct {
	Directory string `json:"directory"`
	File      string `json:"file"`
}

// LoadCompileDB decodes a compile_commands.json file and returns the
// absolute path of every translation unit it names, in file order. A
// relative File is resolved against Directory, matching every compiler
// that writes this format.
func LoadCompileDB(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ast: reading compile database %s: %w", path, err)
	}

	var cmds []CompileCommand
	if err := json.Unmarshal(raw, &cmds); err != nil {
		return nil, fmt.Errorf("ast: parsing compile database %s: %w", path, err)
	}

	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		if c.File == "" {
			continue
		}
		f := c.File
		if !filepath.IsAbs(f) {
			f = filepath.Join(c.Directory, f)
		}
		out = append(out, filepath.Clean(f))
	}
	return out, nil
}
