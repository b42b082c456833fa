package builder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"fixture-builder/core/namer"
)

// nameDirective matches "-- @name <table> <id> <name>" lines of seed files.
var nameDirective = regexp.MustCompile(`^--\s*@name\s+(\S+)\s+(\S+)\s+(\S.*?)\s*$`)

// seedName is a custom name declared by a seed file.
type seedName struct {
	Ref  namer.Ref
	Name string
}

// SeedFiles returns a population routine executing the SQL statements of
// paths, in order, and registering the names their directives declare.
func SeedFiles(paths ...string) PopulateFunc {
	return func(ctx context.Context, bc *Context) error {
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read seed file %s: %w", path, err)
			}

			statements, names := parseSeed(string(data))
			for i, stmt := range statements {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := bc.Exec(stmt); err != nil {
					return fmt.Errorf("%s: statement %d: %w", path, i+1, err)
				}
			}
			for _, n := range names {
				if err := bc.Name(n.Name, n.Ref); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
		}
		return nil
	}
}

// parseSeed splits a seed file into statements and name directives.
func parseSeed(src string) ([]string, []seedName) {
	var names []seedName
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		m := nameDirective.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		names = append(names, seedName{Ref: namer.NewRef(m[1], m[2]), Name: m[3]})
	}
	return splitStatements(src), names
}

// splitStatements splits SQL on semicolons outside quotes, line comments
// and block comments. Comments are dropped; an unterminated block comment
// runs to the end of the file.
func splitStatements(src string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      byte
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(src); i++ {
		ch := src[i]
		if quote != 0 {
			current.WriteByte(ch)
			if ch == quote {
				// Doubled quotes are escapes.
				if i+1 < len(src) && src[i+1] == quote {
					current.WriteByte(src[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += end + 3
			}
			current.WriteByte(' ')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}
