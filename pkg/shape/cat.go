package shape

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// rowRule is one subsystem's cat-response row shaping: drop is an optional
// compiled predicate (row matches -> row is cleared entirely); inject are
// static key/value pairs set on every surviving row. Predicates are gojq
// expressions rather than hardcoded Go, so adding a row rule is data, not
// control flow.
type rowRule struct {
	drop   *gojq.Code
	inject map[string]interface{}
}

func mustCompileDrop(expr string) *gojq.Code {
	query, err := gojq.Parse(expr)
	if err != nil {
		panic(fmt.Sprintf("shape: invalid row predicate %q: %v", expr, err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("shape: failed compiling row predicate %q: %v", expr, err))
	}
	return code
}

// catRules holds the per-subsystem row behaviors; every other cat
// subsystem gets the generic array handling with no row rule.
var catRules = map[string]rowRule{
	"cat_shards": {
		drop: mustCompileDrop(`.state == "RELOCATING"`),
	},
	"cat_aliases": {
		drop:   mustCompileDrop(`(.index // "") | startswith(".")`),
		inject: map[string]interface{}{"info": json.Number("1")},
	},
}

// Cat shapes a cat-style response: a flat JSON array of row objects.
// Applies subsystem's row rule (drop matching rows, inject into
// survivors), then filters out any row left empty. Subsystems with no
// rule pass through unchanged, aside from the empty-row filter.
func Cat(subsystem string, value interface{}) interface{} {
	arr, ok := value.([]interface{})
	if !ok {
		return value
	}

	rule, hasRule := catRules[subsystem]

	out := make([]interface{}, 0, len(arr))
	for _, rowValue := range arr {
		row, ok := rowValue.(map[string]interface{})
		if !ok {
			out = append(out, rowValue)
			continue
		}

		if hasRule && rule.drop != nil && evalDrop(rule.drop, row) {
			continue
		}
		if hasRule {
			for k, v := range rule.inject {
				row[k] = v
			}
		}
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}

// evalDrop runs a compiled row predicate against row and reports whether
// it matched. A predicate that errors or yields a non-boolean is treated
// as "do not drop", so a malformed row still gets its chance to produce
// samples instead of vanishing silently.
func evalDrop(code *gojq.Code, row map[string]interface{}) bool {
	iter := code.Run(row)
	v, ok := iter.Next()
	if !ok {
		return false
	}
	if _, isErr := v.(error); isErr {
		return false
	}
	b, _ := v.(bool)
	return b
}
