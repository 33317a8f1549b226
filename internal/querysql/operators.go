package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

var comparisonOps = map[criteria.Operator]string{
	criteria.OpEquals:              "=",
	criteria.OpNotEquals:           "<>",
	criteria.OpGreaterThan:         ">",
	criteria.OpGreaterThanOrEquals: ">=",
	criteria.OpLessThan:            "<",
	criteria.OpLessThanOrEquals:    "<=",
}

// renderFilter renders col OPERATOR value with every value bound as a
// parameter. There is one case per operator family.
func renderFilter(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	switch op.Family() {
	case criteria.FamilyPrimitive:
		return renderComparison(col, op, value, ctx)
	case criteria.FamilyString:
		return renderPattern(col, op, value, ctx)
	case criteria.FamilyPrimitiveArray:
		return renderMembership(col, op, value, ctx)
	case criteria.FamilyTuple:
		return renderRange(col, op, value, ctx)
	case criteria.FamilyNullary:
		if op == criteria.OpIsNull {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil
	case criteria.FamilyArrayElement:
		return renderArrayElement(col, op, value, ctx)
	case criteria.FamilyArrayCollection:
		return renderArrayCollection(col, op, value, ctx)
	case criteria.FamilyJSON:
		return renderJSON(col, op, value, ctx)
	default:
		return "", fmt.Errorf("unsupported operator %q", op)
	}
}

func renderComparison(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	param, err := ToParam(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", col, comparisonOps[op], ctx.bind(param)), nil
}

func renderPattern(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	s, ok := value.(ir.IRString)
	if !ok {
		return "", fmt.Errorf("expected string value, got %s", ir.KindOf(value))
	}
	pattern := string(s)

	switch op {
	case criteria.OpLike:
		return fmt.Sprintf("%s LIKE %s", col, ctx.bind(pattern)), nil
	case criteria.OpNotLike:
		return fmt.Sprintf("%s NOT LIKE %s", col, ctx.bind(pattern)), nil
	case criteria.OpILike:
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", col, ctx.bind(pattern)), nil
	case criteria.OpNotILike:
		return fmt.Sprintf("LOWER(%s) NOT LIKE LOWER(%s)", col, ctx.bind(pattern)), nil
	case criteria.OpContains:
		return escapedLike(col, "LIKE", "%"+escapeLike(pattern)+"%", ctx), nil
	case criteria.OpNotContains:
		return escapedLike(col, "NOT LIKE", "%"+escapeLike(pattern)+"%", ctx), nil
	case criteria.OpStartsWith:
		return escapedLike(col, "LIKE", escapeLike(pattern)+"%", ctx), nil
	case criteria.OpEndsWith:
		return escapedLike(col, "LIKE", "%"+escapeLike(pattern), ctx), nil
	case criteria.OpMatchesRegex:
		return fmt.Sprintf("%s REGEXP %s", col, ctx.bind(pattern)), nil
	case criteria.OpSetContains:
		return setMember(col, "LIKE", pattern, ctx), nil
	case criteria.OpSetNotContains:
		return setMember(col, "NOT LIKE", pattern, ctx), nil
	default:
		return "", fmt.Errorf("unsupported string operator %q", op)
	}
}

// escapeLike escapes LIKE wildcards so the value matches literally under
// ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func escapedLike(col, like, pattern string, ctx *buildContext) string {
	return fmt.Sprintf(`%s %s %s ESCAPE '\'`, col, like, ctx.bind(pattern))
}

// setMember tests membership in a comma-separated set column.
func setMember(col, like, member string, ctx *buildContext) string {
	return escapedLike("(',' || "+col+" || ',')", like, "%,"+escapeLike(member)+",%", ctx)
}

func renderMembership(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	arr, ok := value.(ir.IRArray)
	if !ok {
		return "", fmt.Errorf("expected array value, got %s", ir.KindOf(value))
	}

	switch op {
	case criteria.OpIn, criteria.OpNotIn:
		list, err := bindList(arr, ctx)
		if err != nil {
			return "", err
		}
		if op == criteria.OpNotIn {
			return fmt.Sprintf("%s NOT IN (%s)", col, list), nil
		}
		return fmt.Sprintf("%s IN (%s)", col, list), nil

	case criteria.OpSetContainsAny, criteria.OpSetContainsAll:
		sep := " OR "
		if op == criteria.OpSetContainsAll {
			sep = " AND "
		}
		terms := make([]string, 0, len(arr))
		for _, elem := range arr {
			member, err := setMemberText(elem)
			if err != nil {
				return "", err
			}
			terms = append(terms, setMember(col, "LIKE", member, ctx))
		}
		return "(" + strings.Join(terms, sep) + ")", nil

	default:
		return "", fmt.Errorf("unsupported membership operator %q", op)
	}
}

func setMemberText(v ir.IRValue) (string, error) {
	param, err := ToParam(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(param), nil
}

func renderRange(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	arr, ok := value.(ir.IRArray)
	if !ok || len(arr) != 2 {
		return "", fmt.Errorf("expected two bounds")
	}
	lo, err := ToParam(arr[0])
	if err != nil {
		return "", err
	}
	hi, err := ToParam(arr[1])
	if err != nil {
		return "", err
	}
	not := ""
	if op == criteria.OpNotBetween {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sBETWEEN %s AND %s", col, not, ctx.bind(lo), ctx.bind(hi)), nil
}

// arraySource returns the json_each source for an array column, optionally
// narrowed to a JSON path, and the value held under it.
func arraySource(col string, value ir.IRValue, ctx *buildContext) (string, ir.IRValue) {
	obj, ok := value.(ir.IRObject)
	if !ok || len(obj) != 1 {
		return fmt.Sprintf("json_each(%s)", col), value
	}
	path := obj.SortedKeys()[0]
	return fmt.Sprintf("json_each(%s, %s)", col, ctx.bind(jsonPath(path))), obj[path]
}

func renderArrayElement(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	src, elem := arraySource(col, value, ctx)
	param, err := ToParam(elem)
	if err != nil {
		return "", err
	}
	exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE value = %s)", src, ctx.bind(param))
	if op == criteria.OpArrayNotContainsElement {
		return "NOT " + exists, nil
	}
	return exists, nil
}

func renderArrayCollection(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	// The path parameter is bound once per json_each use, so the source
	// is rebuilt for every reference.
	path := ""
	hasPath := false
	elems, ok := value.(ir.IRArray)
	if !ok {
		obj, isObj := value.(ir.IRObject)
		if !isObj || len(obj) != 1 {
			return "", fmt.Errorf("expected array or {path: array}, got %s", ir.KindOf(value))
		}
		path = obj.SortedKeys()[0]
		hasPath = true
		if elems, ok = obj[path].(ir.IRArray); !ok {
			return "", fmt.Errorf("path %q must hold an array", path)
		}
	}
	source := func() string {
		if hasPath {
			return fmt.Sprintf("json_each(%s, %s)", col, ctx.bind(jsonPath(path)))
		}
		return fmt.Sprintf("json_each(%s)", col)
	}
	contains := func(elem ir.IRValue) (string, error) {
		src := source()
		param, err := ToParam(elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE value = %s)", src, ctx.bind(param)), nil
	}

	switch op {
	case criteria.OpArrayContainsAllElements, criteria.OpArrayNotContainsAllElements:
		if len(elems) == 0 {
			if op == criteria.OpArrayContainsAllElements {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		terms := make([]string, 0, len(elems))
		for _, elem := range elems {
			term, err := contains(elem)
			if err != nil {
				return "", err
			}
			terms = append(terms, term)
		}
		all := "(" + strings.Join(terms, " AND ") + ")"
		if op == criteria.OpArrayNotContainsAllElements {
			return "NOT " + all, nil
		}
		return all, nil

	case criteria.OpArrayContainsAnyElement, criteria.OpArrayNotContainsAnyElement:
		if len(elems) == 0 {
			if op == criteria.OpArrayContainsAnyElement {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		src := source()
		list, err := bindList(elems, ctx)
		if err != nil {
			return "", err
		}
		exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE value IN (%s))", src, list)
		if op == criteria.OpArrayNotContainsAnyElement {
			return "NOT " + exists, nil
		}
		return exists, nil

	case criteria.OpArrayEquals:
		// Same members and length, any order.
		lengthSQL := arrayLength(col, hasPath, path, ctx)
		terms := []string{fmt.Sprintf("%s = %s", lengthSQL, ctx.bind(int64(len(elems))))}
		for _, elem := range elems {
			term, err := contains(elem)
			if err != nil {
				return "", err
			}
			terms = append(terms, term)
		}
		return "(" + strings.Join(terms, " AND ") + ")", nil

	case criteria.OpArrayEqualsStrict:
		// Element-wise, in order.
		doc, err := marshalJSONParam(elems)
		if err != nil {
			return "", err
		}
		target := col
		if hasPath {
			target = fmt.Sprintf("json_extract(%s, %s)", col, ctx.bind(jsonPath(path)))
		}
		return fmt.Sprintf("json(%s) = json(%s)", target, ctx.bind(doc)), nil

	default:
		return "", fmt.Errorf("unsupported array operator %q", op)
	}
}

func arrayLength(col string, hasPath bool, path string, ctx *buildContext) string {
	if hasPath {
		return fmt.Sprintf("json_array_length(%s, %s)", col, ctx.bind(jsonPath(path)))
	}
	return fmt.Sprintf("json_array_length(%s)", col)
}

// jsonTerm is one (path, primitive) containment test of a JSON operator.
type jsonTerm struct {
	path  string
	value ir.IRValue
}

// flattenJSON expands a {path: value} object into leaf containment terms:
// objects descend into their keys and arrays contribute each element.
func flattenJSON(path string, value ir.IRValue) ([]jsonTerm, error) {
	switch v := value.(type) {
	case ir.IRObject:
		var terms []jsonTerm
		for _, k := range v.SortedKeys() {
			sub, err := flattenJSON(path+"."+k, v[k])
			if err != nil {
				return nil, err
			}
			terms = append(terms, sub...)
		}
		return terms, nil
	case ir.IRArray:
		terms := make([]jsonTerm, 0, len(v))
		for i, elem := range v {
			if !ir.IsPrimitive(elem) {
				return nil, fmt.Errorf("path %q element %d is %s; nested collections are not supported", path, i, ir.KindOf(elem))
			}
			terms = append(terms, jsonTerm{path: path, value: elem})
		}
		return terms, nil
	default:
		if !ir.IsPrimitive(value) {
			return nil, fmt.Errorf("path %q holds %s", path, ir.KindOf(value))
		}
		return []jsonTerm{{path: path, value: value}}, nil
	}
}

func renderJSON(col string, op criteria.Operator, value ir.IRValue, ctx *buildContext) (string, error) {
	obj, ok := value.(ir.IRObject)
	if !ok || len(obj) == 0 {
		return "", fmt.Errorf("expected {path: value} object, got %s", ir.KindOf(value))
	}

	if op == criteria.OpJSONPathValueEquals || op == criteria.OpJSONPathValueNotEquals {
		return renderJSONPathEquals(col, op, obj, ctx)
	}

	var terms []jsonTerm
	for _, path := range obj.SortedKeys() {
		sub, err := flattenJSON(path, obj[path])
		if err != nil {
			return "", err
		}
		terms = append(terms, sub...)
	}

	sep := " AND "
	if op == criteria.OpJSONContainsAny || op == criteria.OpJSONNotContainsAny {
		sep = " OR "
	}
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		param, err := ToParam(term.value)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s, %s) WHERE value = %s)",
			col, ctx.bind(jsonPath(term.path)), ctx.bind(param)))
	}
	expr := "(" + strings.Join(parts, sep) + ")"

	switch op {
	case criteria.OpJSONContains, criteria.OpJSONContainsAny, criteria.OpJSONContainsAll:
		return expr, nil
	case criteria.OpJSONNotContains, criteria.OpJSONNotContainsAny, criteria.OpJSONNotContainsAll:
		return "NOT " + expr, nil
	default:
		return "", fmt.Errorf("unsupported JSON operator %q", op)
	}
}

// renderJSONPathEquals compares the value stored at each path. Collections
// compare as minified JSON text.
func renderJSONPathEquals(col string, op criteria.Operator, obj ir.IRObject, ctx *buildContext) (string, error) {
	parts := make([]string, 0, len(obj))
	for _, path := range obj.SortedKeys() {
		switch v := obj[path].(type) {
		case ir.IRArray, ir.IRObject:
			doc, err := marshalJSONParam(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("json_extract(%s, %s) = json(%s)", col, ctx.bind(jsonPath(path)), ctx.bind(doc)))
		default:
			param, err := ToParam(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("json_extract(%s, %s) = %s", col, ctx.bind(jsonPath(path)), ctx.bind(param)))
		}
	}

	expr := strings.Join(parts, " AND ")
	if len(parts) > 1 {
		expr = "(" + expr + ")"
	}
	if op == criteria.OpJSONPathValueNotEquals {
		return "NOT " + expr, nil
	}
	return expr, nil
}

func bindList(arr ir.IRArray, ctx *buildContext) (string, error) {
	placeholders := make([]string, 0, len(arr))
	for _, elem := range arr {
		param, err := ToParam(elem)
		if err != nil {
			return "", err
		}
		placeholders = append(placeholders, ctx.bind(param))
	}
	return strings.Join(placeholders, ", "), nil
}

// jsonPath converts a dotted path ("address.city") to an SQLite JSON path.
func jsonPath(path string) string {
	if strings.HasPrefix(path, "$") {
		return path
	}
	return "$." + path
}
