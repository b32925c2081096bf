// Copyright © 2024 The ELPS authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/flakes/ast"
)

// MessageKind identifies a diagnostic raised by the checker.
type MessageKind int

const (
	UndefinedName MessageKind = iota
	UndefinedLocal
	UndefinedExport
	ImportStarUsed
	ImportStarUsage
	ImportStarNotPermitted
	RedefinedWhileUnused
	ImportShadowedByLoopVar
	UnusedImport
	UnusedVariable
	MultiValueRepeatedKeyLiteral
	MultiValueRepeatedKeyVariable
	UnhashableTypeError
	DoctestSyntaxError
	ForwardAnnotationSyntaxError
	LateFutureImport
	FutureFeatureNotDefined
	ReturnOutsideFunction
	YieldOutsideFunction
	ContinueOutsideLoop
	BreakOutsideLoop
	DefaultExceptNotLast
	DuplicateArgument
	UnsupportedSyntax
)

var messageKindNames = [...]string{
	UndefinedName:                 "UndefinedName",
	UndefinedLocal:                "UndefinedLocal",
	UndefinedExport:               "UndefinedExport",
	ImportStarUsed:                "ImportStarUsed",
	ImportStarUsage:               "ImportStarUsage",
	ImportStarNotPermitted:        "ImportStarNotPermitted",
	RedefinedWhileUnused:          "RedefinedWhileUnused",
	ImportShadowedByLoopVar:       "ImportShadowedByLoopVar",
	UnusedImport:                  "UnusedImport",
	UnusedVariable:                "UnusedVariable",
	MultiValueRepeatedKeyLiteral:  "MultiValueRepeatedKeyLiteral",
	MultiValueRepeatedKeyVariable: "MultiValueRepeatedKeyVariable",
	UnhashableTypeError:           "UnhashableTypeError",
	DoctestSyntaxError:            "DoctestSyntaxError",
	ForwardAnnotationSyntaxError:  "ForwardAnnotationSyntaxError",
	LateFutureImport:              "LateFutureImport",
	FutureFeatureNotDefined:       "FutureFeatureNotDefined",
	ReturnOutsideFunction:         "ReturnOutsideFunction",
	YieldOutsideFunction:          "YieldOutsideFunction",
	ContinueOutsideLoop:           "ContinueOutsideLoop",
	BreakOutsideLoop:              "BreakOutsideLoop",
	DefaultExceptNotLast:          "DefaultExceptNotLast",
	DuplicateArgument:             "DuplicateArgument",
	UnsupportedSyntax:             "UnsupportedSyntax",
}

func (k MessageKind) String() string {
	if k < 0 || int(k) >= len(messageKindNames) {
		return "Unknown"
	}
	return messageKindNames[k]
}

// Message is a diagnostic raised during analysis. Pos is already
// translated to the analyzed file, including for doctest examples.
type Message struct {
	Kind MessageKind
	Pos  ast.Pos
	// Name is the identifier, import or key text the message is about.
	Name string
	// Orig is the position of the earlier binding for redefinitions,
	// shadowing and UndefinedLocal.
	Orig ast.Pos
	// Detail carries extra text: the candidate modules of a star-import
	// usage, the parser's reason for a syntax error, or the node kind of
	// unsupported syntax.
	Detail string
}

// Text renders the message without its position.
func (m *Message) Text() string {
	switch m.Kind {
	case UndefinedName:
		return fmt.Sprintf("undefined name '%s'", m.Name)
	case UndefinedLocal:
		if !m.Orig.IsValid() {
			return fmt.Sprintf("local variable '%s' defined as a builtin referenced before assignment", m.Name)
		}
		return fmt.Sprintf("local variable '%s' defined in enclosing scope on line %d referenced before assignment", m.Name, m.Orig.Line)
	case UndefinedExport:
		return fmt.Sprintf("undefined name '%s' in __all__", m.Name)
	case ImportStarUsed:
		return fmt.Sprintf("'from %s import *' used; unable to detect undefined names", m.Name)
	case ImportStarUsage:
		return fmt.Sprintf("'%s' may be undefined, or defined from star imports: %s", m.Name, m.Detail)
	case ImportStarNotPermitted:
		return fmt.Sprintf("'from %s import *' only allowed at module level", m.Name)
	case RedefinedWhileUnused:
		return fmt.Sprintf("redefinition of unused '%s' from line %d", m.Name, m.Orig.Line)
	case ImportShadowedByLoopVar:
		return fmt.Sprintf("import '%s' from line %d shadowed by loop variable", m.Name, m.Orig.Line)
	case UnusedImport:
		return fmt.Sprintf("'%s' imported but unused", m.Name)
	case UnusedVariable:
		return fmt.Sprintf("local variable '%s' is assigned to but never used", m.Name)
	case MultiValueRepeatedKeyLiteral:
		return fmt.Sprintf("dictionary key %s repeated with different values", m.Name)
	case MultiValueRepeatedKeyVariable:
		return fmt.Sprintf("dictionary key variable %s repeated with different values", m.Name)
	case UnhashableTypeError:
		return fmt.Sprintf("unhashable dictionary key %s", m.Name)
	case DoctestSyntaxError:
		if m.Detail != "" {
			return "syntax error in doctest: " + m.Detail
		}
		return "syntax error in doctest"
	case ForwardAnnotationSyntaxError:
		return fmt.Sprintf("syntax error in forward annotation '%s'", m.Name)
	case LateFutureImport:
		return "from __future__ imports must occur at the beginning of the file"
	case FutureFeatureNotDefined:
		return fmt.Sprintf("future feature %s is not defined", m.Name)
	case ReturnOutsideFunction:
		return "'return' outside function"
	case YieldOutsideFunction:
		return "'yield' outside function"
	case ContinueOutsideLoop:
		return "'continue' not properly in loop"
	case BreakOutsideLoop:
		return "'break' outside loop"
	case DefaultExceptNotLast:
		return "default 'except:' must be last"
	case DuplicateArgument:
		return fmt.Sprintf("duplicate argument '%s' in function definition", m.Name)
	case UnsupportedSyntax:
		return fmt.Sprintf("unsupported syntax: %s", m.Detail)
	}
	return m.Kind.String()
}

func (m *Message) String() string {
	return fmt.Sprintf("%s: %s", m.Pos, m.Text())
}
