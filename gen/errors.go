package gen

import (
	"errors"
	"go/token"
	"strings"
)

// Directive attribute errors.
var (
	ErrMissingSymbol      = errors.New(`missing required attribute 'symbol = "..."'`)
	ErrMalformedValue     = errors.New("expected a string literal")
	ErrUnknownKey         = errors.New("unknown attribute key, expected 'symbol' or 'library'")
	ErrMalformedEntry     = errors.New(`expected name-value attribute, like symbol = "..."`)
	ErrDuplicateKey       = errors.New("attribute given more than once")
	ErrInvalidSymbol      = errors.New("symbol must be a C identifier usable as a Go function name")
	ErrDuplicateDirective = errors.New("function carries more than one hook directive")
	ErrDetachedDirective  = errors.New("hook directive must be in the doc comment of a function")
)

// Hook shape errors.
var (
	ErrNoParameters         = errors.New("hook logic function must accept at least one argument (the original function)")
	ErrFirstParamNotFunc    = errors.New("the first argument of the hook logic function must be a function, e.g. original func(fd C.int) C.int")
	ErrReceiverNotAllowed   = errors.New("hook logic function cannot be a method")
	ErrTypeParamsNotAllowed = errors.New("hook logic function cannot be generic")
	ErrVariadicNotAllowed   = errors.New("variadic functions cannot be intercepted")
	ErrMultipleResults      = errors.New("hook logic function can return at most one value")
	ErrSignatureMismatch    = errors.New("original function type does not match the hook parameters")
	ErrUnsupportedType      = errors.New("type has no C equivalent")
)

// File level errors.
var (
	ErrNoHooks         = errors.New("no //hooktrace:hook functions found")
	ErrDuplicateSymbol = errors.New("symbol is hooked more than once")
	ErrNameCollision   = errors.New("generated identifier collides with an existing declaration")
)

// SpecError reports a bad //hooktrace:hook directive.
type SpecError struct {
	Kind error
	// Key is the offending attribute key, if any.
	Key string
	Pos token.Position
	// Detail is optional extra context.
	Detail string
}

func (e *SpecError) Error() string {
	var b strings.Builder
	writePos(&b, e.Pos)
	if e.Key != "" {
		b.WriteString(e.Key)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns Kind so errors.Is works against the sentinels.
func (e *SpecError) Unwrap() error { return e.Kind }

// ShapeError reports a hook function that cannot be turned into a wrapper.
type ShapeError struct {
	Kind error
	// Hook is the hook function name.
	Hook string
	// Param names the offending parameter or type, if any.
	Param  string
	Pos    token.Position
	Detail string
}

func (e *ShapeError) Error() string {
	var b strings.Builder
	writePos(&b, e.Pos)
	b.WriteString(e.Hook)
	if e.Param != "" {
		b.WriteString(": ")
		b.WriteString(e.Param)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns Kind so errors.Is works against the sentinels.
func (e *ShapeError) Unwrap() error { return e.Kind }

func writePos(b *strings.Builder, pos token.Position) {
	if pos.IsValid() || pos.Filename != "" {
		b.WriteString(pos.String())
		b.WriteString(": ")
	}
}
