package astengine

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"resym/internal/parser"
	"resym/internal/rename"
)

// langRules drives the generic walk: which node kinds open a scope, and how
// an identifier token is classified from its structural position.
type langRules struct {
	// scopeKinds maps a node kind to the scope kind it opens.
	scopeKinds map[string]string
	classify   func(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind)
}

func rulesFor(lang string) (langRules, bool) {
	r, ok := languageRules[lang]
	return r, ok
}

var languageRules = map[string]langRules{
	"python": {
		scopeKinds: map[string]string{
			"class_definition":         "class",
			"function_definition":      "function",
			"lambda":                   "lambda",
			"list_comprehension":       "comprehension",
			"set_comprehension":        "comprehension",
			"dictionary_comprehension": "comprehension",
			"generator_expression":     "comprehension",
		},
		classify: classifyPython,
	},
	"go": {
		scopeKinds: map[string]string{
			"function_declaration": "function",
			"method_declaration":   "function",
			"func_literal":         "lambda",
		},
		classify: classifyGo,
	},
	"javascript": {
		scopeKinds: map[string]string{
			"function_declaration": "function",
			"function_expression":  "function",
			"arrow_function":       "lambda",
			"method_definition":    "function",
			"class_declaration":    "class",
		},
		classify: classifyJavascript,
	},
	"typescript": {
		scopeKinds: map[string]string{
			"function_declaration":   "function",
			"function_expression":    "function",
			"arrow_function":         "lambda",
			"method_definition":      "function",
			"class_declaration":      "class",
			"interface_declaration":  "class",
			"enum_declaration":       "class",
			"type_alias_declaration": "class",
		},
		classify: classifyTypescript,
	},
	"java": {
		scopeKinds: map[string]string{
			"class_declaration":     "class",
			"interface_declaration": "class",
			"enum_declaration":      "class",
			"method_declaration":    "function",
			"lambda_expression":     "lambda",
		},
		classify: classifyJava,
	},
	"rust": {
		scopeKinds: map[string]string{
			"function_item":      "function",
			"impl_item":          "class",
			"trait_item":         "class",
			"closure_expression": "lambda",
		},
		classify: classifyRust,
	},
}

func classifyPython(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind) {
	p := n.Parent()
	if p == nil {
		return rename.OccReference, rename.KindVariable
	}

	switch p.Kind() {
	case "function_definition":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindFunction
		}
	case "class_definition":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindClass
		}
	case "parameters", "lambda_parameters":
		return rename.OccDefinition, rename.KindParameter
	case "default_parameter", "typed_parameter", "typed_default_parameter":
		if parser.FieldIs(p, "name", n) || parser.SameNode(p.NamedChild(0), n) {
			return rename.OccDefinition, rename.KindParameter
		}
	case "assignment", "augmented_assignment":
		if parser.FieldIs(p, "left", n) {
			return rename.OccDefinition, rename.KindVariable
		}
	case "pattern_list", "tuple_pattern", "as_pattern_target":
		return rename.OccDefinition, rename.KindVariable
	case "for_statement":
		if parser.FieldIs(p, "left", n) {
			return rename.OccDefinition, rename.KindVariable
		}
	case "for_in_clause":
		if parser.FieldIs(p, "left", n) {
			return rename.OccDefinition, rename.KindVariable
		}
	case "global_statement", "nonlocal_statement":
		return rename.OccDefinition, rename.KindVariable
	case "except_clause":
		if followsAsKeyword(n) {
			return rename.OccDefinition, rename.KindException
		}
	case "aliased_import":
		if parser.FieldIs(p, "alias", n) {
			return rename.OccImport, rename.KindImport
		}
		return rename.OccImport, rename.KindImport
	case "import_from_statement", "import_statement":
		return rename.OccImport, rename.KindImport
	case "dotted_name":
		if gp := p.Parent(); gp != nil {
			switch gp.Kind() {
			case "import_statement", "import_from_statement", "aliased_import":
				return rename.OccImport, rename.KindImport
			}
		}
		// Leading segment of a dotted reference reads as a variable; later
		// segments are attribute-ish but the grammar keeps them flat here.
		return rename.OccReference, rename.KindVariable
	case "attribute":
		if parser.FieldIs(p, "attribute", n) {
			return rename.OccReference, rename.KindAttribute
		}
	case "call":
		if parser.FieldIs(p, "function", n) {
			return rename.OccReference, rename.KindFunction
		}
	case "keyword_argument":
		if parser.FieldIs(p, "name", n) {
			return rename.OccReference, rename.KindParameter
		}
	case "decorator":
		return rename.OccReference, rename.KindFunction
	}

	return rename.OccReference, rename.KindVariable
}

// followsAsKeyword reports whether n is the binding after an "as" token,
// e.g. `except ValueError as err`.
func followsAsKeyword(n *sitter.Node) bool {
	prev := n.PrevSibling()
	return prev != nil && prev.Kind() == "as"
}

func classifyGo(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind) {
	p := n.Parent()
	if p == nil {
		return rename.OccReference, rename.KindVariable
	}

	switch p.Kind() {
	case "function_declaration", "method_declaration":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindFunction
		}
	case "type_spec":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindClass
		}
	case "field_declaration":
		return rename.OccDefinition, rename.KindField
	case "parameter_declaration", "variadic_parameter_declaration":
		if n.Kind() == "identifier" {
			return rename.OccDefinition, rename.KindParameter
		}
	case "var_spec", "const_spec":
		if n.Kind() == "identifier" && !parser.FieldIs(p, "value", n) {
			return rename.OccDefinition, rename.KindVariable
		}
	case "expression_list":
		if gp := p.Parent(); gp != nil {
			if gp.Kind() == "short_var_declaration" && parser.FieldIs(gp, "left", p) {
				return rename.OccDefinition, rename.KindVariable
			}
			if gp.Kind() == "range_clause" && parser.FieldIs(gp, "left", p) {
				return rename.OccDefinition, rename.KindVariable
			}
		}
	case "selector_expression":
		if parser.FieldIs(p, "field", n) {
			if gp := p.Parent(); gp != nil && gp.Kind() == "call_expression" && parser.FieldIs(gp, "function", p) {
				return rename.OccReference, rename.KindFunction
			}
			return rename.OccReference, rename.KindAttribute
		}
	case "call_expression":
		if parser.FieldIs(p, "function", n) {
			return rename.OccReference, rename.KindFunction
		}
	case "keyed_element":
		if parser.SameNode(p.NamedChild(0), n) {
			return rename.OccReference, rename.KindField
		}
	case "import_spec":
		return rename.OccImport, rename.KindImport
	}

	if n.Kind() == "type_identifier" {
		return rename.OccReference, rename.KindClass
	}
	if n.Kind() == "field_identifier" {
		return rename.OccReference, rename.KindAttribute
	}
	if n.Kind() == "package_identifier" {
		return rename.OccReference, rename.KindImport
	}
	return rename.OccReference, rename.KindVariable
}

func classifyJavascript(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind) {
	p := n.Parent()
	if p == nil {
		return rename.OccReference, rename.KindVariable
	}

	switch p.Kind() {
	case "function_declaration", "function_expression", "generator_function_declaration":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindFunction
		}
	case "class_declaration":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindClass
		}
	case "method_definition":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindFunction
		}
	case "variable_declarator":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindVariable
		}
	case "formal_parameters":
		return rename.OccDefinition, rename.KindParameter
	case "arrow_function":
		if parser.FieldIs(p, "parameter", n) {
			return rename.OccDefinition, rename.KindParameter
		}
	case "member_expression":
		if parser.FieldIs(p, "property", n) {
			if gp := p.Parent(); gp != nil && gp.Kind() == "call_expression" && parser.FieldIs(gp, "function", p) {
				return rename.OccReference, rename.KindFunction
			}
			return rename.OccReference, rename.KindAttribute
		}
	case "call_expression":
		if parser.FieldIs(p, "function", n) {
			return rename.OccReference, rename.KindFunction
		}
	case "pair":
		if parser.FieldIs(p, "key", n) {
			return rename.OccReference, rename.KindField
		}
	case "import_specifier", "namespace_import", "import_clause":
		return rename.OccImport, rename.KindImport
	}

	return rename.OccReference, rename.KindVariable
}

func classifyTypescript(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind) {
	p := n.Parent()
	if p != nil {
		switch p.Kind() {
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			if parser.FieldIs(p, "name", n) {
				return rename.OccDefinition, rename.KindClass
			}
		case "required_parameter", "optional_parameter":
			return rename.OccDefinition, rename.KindParameter
		case "property_signature", "public_field_definition":
			if parser.FieldIs(p, "name", n) {
				return rename.OccDefinition, rename.KindField
			}
		}
	}
	if n.Kind() == "type_identifier" {
		return rename.OccReference, rename.KindClass
	}
	return classifyJavascript(n, src)
}

func classifyJava(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind) {
	p := n.Parent()
	if p == nil {
		return rename.OccReference, rename.KindVariable
	}

	switch p.Kind() {
	case "method_declaration", "constructor_declaration":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindFunction
		}
	case "class_declaration", "interface_declaration", "enum_declaration":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindClass
		}
	case "formal_parameter":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindParameter
		}
	case "variable_declarator":
		if parser.FieldIs(p, "name", n) {
			if gp := declarationContext(p); gp == "field_declaration" {
				return rename.OccDefinition, rename.KindField
			}
			return rename.OccDefinition, rename.KindVariable
		}
	case "method_invocation":
		if parser.FieldIs(p, "name", n) {
			return rename.OccReference, rename.KindFunction
		}
	case "field_access":
		if parser.FieldIs(p, "field", n) {
			return rename.OccReference, rename.KindAttribute
		}
	}

	if n.Kind() == "type_identifier" {
		return rename.OccReference, rename.KindClass
	}
	return rename.OccReference, rename.KindVariable
}

func declarationContext(declarator *sitter.Node) string {
	if gp := declarator.Parent(); gp != nil {
		return gp.Kind()
	}
	return ""
}

func classifyRust(n *sitter.Node, src []byte) (rename.OccurrenceKind, rename.SymbolKind) {
	p := n.Parent()
	if p == nil {
		return rename.OccReference, rename.KindVariable
	}

	switch p.Kind() {
	case "function_item", "function_signature_item":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindFunction
		}
	case "struct_item", "enum_item", "trait_item", "union_item":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindClass
		}
	case "let_declaration":
		if parser.FieldIs(p, "pattern", n) {
			return rename.OccDefinition, rename.KindVariable
		}
	case "parameter":
		if parser.FieldIs(p, "pattern", n) {
			return rename.OccDefinition, rename.KindParameter
		}
	case "field_declaration":
		if parser.FieldIs(p, "name", n) {
			return rename.OccDefinition, rename.KindField
		}
	case "field_expression":
		if parser.FieldIs(p, "field", n) {
			return rename.OccReference, rename.KindAttribute
		}
	case "call_expression":
		if parser.FieldIs(p, "function", n) {
			return rename.OccReference, rename.KindFunction
		}
	case "use_declaration", "use_as_clause", "scoped_use_list", "use_list":
		return rename.OccImport, rename.KindImport
	}

	if n.Kind() == "type_identifier" {
		return rename.OccReference, rename.KindClass
	}
	if n.Kind() == "field_identifier" {
		return rename.OccReference, rename.KindAttribute
	}
	return rename.OccReference, rename.KindVariable
}
