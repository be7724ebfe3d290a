package gen

import (
	"go/scanner"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

// Directive marks a hook function. Its arguments are key = "value" entries
// separated by commas or spaces.
const Directive = "//hooktrace:hook"

// Recognized directive keys.
const (
	KeySymbol  = "symbol"
	KeyLibrary = "library"
)

// InterceptionSpec is the parsed form of a hook directive.
type InterceptionSpec struct {
	// Symbol is the name the wrapper is exported under.
	Symbol string
	// Library is advisory: the default resolver ignores it.
	Library string
	// Pos is the position of the directive arguments.
	Pos token.Position
}

type attrToken struct {
	tok token.Token
	lit string
	off int
}

type attrEntry []attrToken

func (e attrEntry) key() (string, bool) {
	if len(e) == 0 || e[0].tok != token.IDENT {
		return "", false
	}
	return e[0].lit, true
}

// ParseSpec parses the argument text of a hook directive. pos locates raw in
// the source file and is used for diagnostics.
//
// The symbol key is looked for before any entry is inspected, so a directive
// without one always fails with ErrMissingSymbol.
func ParseSpec(raw string, pos token.Position) (InterceptionSpec, error) {
	entries := splitEntries(scanAttrs(raw))
	at := func(off int) token.Position {
		p := pos
		p.Column += off
		p.Offset += off
		return p
	}

	hasSymbol := false
	for _, e := range entries {
		if k, ok := e.key(); ok && k == KeySymbol {
			hasSymbol = true
			break
		}
	}
	if !hasSymbol {
		return InterceptionSpec{}, &SpecError{Kind: ErrMissingSymbol, Pos: pos}
	}

	spec := InterceptionSpec{Pos: pos}
	seen := map[string]bool{}
	for _, e := range entries {
		key, ok := e.key()
		if !ok || len(e) != 3 || e[1].tok != token.ASSIGN {
			return InterceptionSpec{}, &SpecError{Kind: ErrMalformedEntry, Pos: at(e[0].off), Detail: entryText(e)}
		}
		if key != KeySymbol && key != KeyLibrary {
			return InterceptionSpec{}, &SpecError{Kind: ErrUnknownKey, Key: key, Pos: at(e[0].off)}
		}
		if seen[key] {
			return InterceptionSpec{}, &SpecError{Kind: ErrDuplicateKey, Key: key, Pos: at(e[0].off)}
		}
		seen[key] = true

		val := e[2]
		if val.tok != token.STRING {
			return InterceptionSpec{}, &SpecError{Kind: ErrMalformedValue, Key: key, Pos: at(val.off), Detail: val.lit}
		}
		s, err := strconv.Unquote(val.lit)
		if err != nil {
			return InterceptionSpec{}, &SpecError{Kind: ErrMalformedValue, Key: key, Pos: at(val.off), Detail: val.lit}
		}

		switch key {
		case KeySymbol:
			if err := checkSymbol(s); err != nil {
				return InterceptionSpec{}, &SpecError{Kind: ErrInvalidSymbol, Key: key, Pos: at(val.off), Detail: err.Error()}
			}
			spec.Symbol = s
		case KeyLibrary:
			spec.Library = s
		}
	}

	return spec, nil
}

func scanAttrs(raw string) []attrToken {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(raw))

	var s scanner.Scanner
	// Errors surface as ILLEGAL tokens or unquotable literals.
	s.Init(file, []byte(raw), func(token.Position, string) {}, 0)

	var toks []attrToken
	for {
		p, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		// Automatic semicolons are not part of the text.
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		if lit == "" {
			lit = tok.String()
		}
		toks = append(toks, attrToken{tok: tok, lit: lit, off: file.Offset(p)})
	}
	return toks
}

// splitEntries groups tokens into entries. An entry ends at a comma or where
// a new "ident =" starts after a complete pair.
func splitEntries(toks []attrToken) []attrEntry {
	var (
		entries []attrEntry
		cur     attrEntry
	)
	flush := func() {
		if len(cur) > 0 {
			entries = append(entries, cur)
			cur = nil
		}
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.tok == token.COMMA {
			flush()
			continue
		}
		if len(cur) >= 3 && t.tok == token.IDENT && i+1 < len(toks) && toks[i+1].tok == token.ASSIGN {
			flush()
		}
		cur = append(cur, t)
	}
	flush()
	return entries
}

func entryText(e attrEntry) string {
	parts := make([]string, len(e))
	for i, t := range e {
		parts[i] = t.lit
	}
	return strings.Join(parts, " ")
}

var cIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedSymbols cannot be Go function names that cgo can export.
var reservedSymbols = map[string]bool{
	"_":    true,
	"init": true,
	"main": true,
}

func checkSymbol(s string) error {
	switch {
	case s == "":
		return errorString("empty symbol")
	case !cIdent.MatchString(s):
		return errorString("not a C identifier: " + strconv.Quote(s))
	case token.IsKeyword(s):
		return errorString(strconv.Quote(s) + " is a Go keyword")
	case reservedSymbols[s]:
		return errorString(strconv.Quote(s) + " is reserved")
	case strings.HasPrefix(s, "_cgo") || strings.HasPrefix(s, "_Cgo") || strings.HasPrefix(s, "hooktrace_"):
		return errorString(strconv.Quote(s) + " uses a reserved prefix")
	}
	return nil
}

type errorString string

func (e errorString) Error() string { return string(e) }
