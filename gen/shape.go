package gen

import (
	"go/ast"
	"go/token"
	"strings"
)

// ValidateHookShape checks that def can be wrapped: a plain, non-generic
// function whose first parameter is the original function and whose
// remaining parameters and result match that function's type.
func ValidateHookShape(def *HookDef) error {
	fail := func(kind error, param string, pos token.Position, detail string) error {
		return &ShapeError{Kind: kind, Hook: def.Name, Param: param, Pos: pos, Detail: detail}
	}

	if def.HasReceiver {
		return fail(ErrReceiverNotAllowed, def.Receiver, def.Pos, "")
	}
	if def.HasTypeParams {
		return fail(ErrTypeParamsNotAllowed, "", def.Pos, "")
	}
	if len(def.Params) == 0 {
		return fail(ErrNoParameters, "", def.Pos, "")
	}

	first := def.Params[0]
	original, ok := def.originalType()
	if !ok {
		return fail(ErrFirstParamNotFunc, first.Name, first.Pos, "got "+first.TypeString())
	}

	for _, p := range def.Params {
		if _, ok := p.Type.(*ast.Ellipsis); ok {
			return fail(ErrVariadicNotAllowed, p.Name, p.Pos, "")
		}
	}
	if len(def.Results) > 1 {
		return fail(ErrMultipleResults, "", def.Results[1].Pos, "")
	}

	origParams := expandFields(nil, original.Params)
	origResults := expandFields(nil, original.Results)
	for _, p := range origParams {
		if _, ok := p.Type.(*ast.Ellipsis); ok {
			return fail(ErrVariadicNotAllowed, first.Name, first.Pos, "original is variadic")
		}
	}
	if len(origResults) > 1 {
		return fail(ErrMultipleResults, first.Name, first.Pos, "original returns "+typeList(origResults))
	}

	want := typeList(origParams) + typeList(origResults)
	got := typeList(def.Params[1:]) + typeList(def.Results)
	if want != got {
		return fail(ErrSignatureMismatch, first.Name, first.Pos,
			"original is func"+typeList(origParams)+resultSuffix(origResults)+
				", hook forwards func"+typeList(def.Params[1:])+resultSuffix(def.Results))
	}
	return nil
}

func typeList(ps []Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.TypeString()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func resultSuffix(rs []Param) string {
	if len(rs) == 0 {
		return ""
	}
	return " " + rs[0].TypeString()
}
