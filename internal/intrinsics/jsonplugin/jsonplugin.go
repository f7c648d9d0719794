// Package jsonplugin implements JSON.stringify/parse's tree-walking
// conversion between runtime.Value and serialized text, plus a
// non-standard JSON.toYAML debug helper. Grounded on the teacher's
// internal/interp/json_conversion.go, which performs the same
// encoding/json.Number round-tripping dance between a dynamic host
// value and a parsed tree; generalized here from DWScript's Value
// union to this engine's prototype-based Object model, and widened
// with a YAML output path since yaml.v3's Node API gives the ordered,
// hand-built tree that encoding/json's map-based decoding does not.
package jsonplugin

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// Stringify serializes v following the same recursive structure walk
// JSON.stringify performs: objects via OwnPropertyKeys in insertion
// order, arrays by integer index, undefined/function values omitted
// from object properties and nulled out inside arrays. ok is false when
// the top-level value itself has no JSON representation (undefined or
// a bare function), matching `JSON.stringify(undefined) === undefined`.
func Stringify(agent *runtime.Agent, v runtime.Value, indent string) (string, bool, *errors.LanguageError) {
	var sb strings.Builder
	wrote, err := writeValue(agent, &sb, v, indent, "")
	if err != nil {
		return "", false, err
	}
	if !wrote {
		return "", false, nil
	}
	return sb.String(), true, nil
}

func writeValue(agent *runtime.Agent, sb *strings.Builder, v runtime.Value, indent, curIndent string) (bool, *errors.LanguageError) {
	v, err := toJSONValue(agent, v)
	if err != nil {
		return false, err
	}
	if v == nil || v == runtime.Undefined {
		return false, nil
	}
	if v == runtime.Null {
		sb.WriteString("null")
		return true, nil
	}
	switch t := v.(type) {
	case runtime.Boolean:
		if t {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case runtime.Number:
		sb.WriteString(formatJSONNumber(float64(t)))
	case runtime.String:
		sb.WriteString(quoteJSON(string(t)))
	case *runtime.Object:
		if t.IsCallable() {
			return false, nil
		}
		if t.Exotic == runtime.ExoticArray {
			return writeArray(agent, sb, t, indent, curIndent)
		}
		return writeObject(agent, sb, t, indent, curIndent)
	default:
		return false, nil
	}
	return true, nil
}

// toJSONValue applies the ToJSON-method protocol: if v is an object
// exposing a callable "toJSON" property, its result replaces v before
// serialization (the same hook Date and any user object can use to
// control its own JSON shape).
func toJSONValue(agent *runtime.Agent, v runtime.Value) (runtime.Value, *errors.LanguageError) {
	o, ok := v.(*runtime.Object)
	if !ok {
		return v, nil
	}
	toJSON, err := o.Get(agent, runtime.String("toJSON"), o)
	if err != nil {
		return nil, err
	}
	fn, ok := toJSON.(*runtime.Object)
	if !ok || !fn.IsCallable() {
		return v, nil
	}
	return fn.Call(agent, o, nil, nil)
}

func writeArray(agent *runtime.Agent, sb *strings.Builder, arr *runtime.Object, indent, curIndent string) (bool, *errors.LanguageError) {
	lengthV, err := arr.Get(agent, runtime.String("length"), arr)
	if err != nil {
		return false, err
	}
	n, ok := lengthV.(runtime.Number)
	if !ok {
		n = 0
	}
	length := int(n)
	nextIndent := curIndent + indent
	sb.WriteString("[")
	for i := 0; i < length; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		newline(sb, indent, nextIndent)
		elem, gerr := arr.Get(agent, runtime.String(strconv.Itoa(i)), arr)
		if gerr != nil {
			return false, gerr
		}
		wrote, werr := writeValue(agent, sb, elem, indent, nextIndent)
		if werr != nil {
			return false, werr
		}
		if !wrote {
			sb.WriteString("null")
		}
	}
	if length > 0 {
		newline(sb, indent, curIndent)
	}
	sb.WriteString("]")
	return true, nil
}

func writeObject(agent *runtime.Agent, sb *strings.Builder, o *runtime.Object, indent, curIndent string) (bool, *errors.LanguageError) {
	keys := o.OwnPropertyKeys()
	nextIndent := curIndent + indent
	sb.WriteString("{")
	wrote := 0
	for _, key := range keys {
		s, ok := key.(runtime.String)
		if !ok {
			continue
		}
		desc := o.GetOwnProperty(key)
		if desc == nil || !desc.IsEnumerable() {
			continue
		}
		v, gerr := o.Get(agent, key, o)
		if gerr != nil {
			return false, gerr
		}
		var valBuf strings.Builder
		didWrite, werr := writeValue(agent, &valBuf, v, indent, nextIndent)
		if werr != nil {
			return false, werr
		}
		if !didWrite {
			continue
		}
		if wrote > 0 {
			sb.WriteString(",")
		}
		newline(sb, indent, nextIndent)
		sb.WriteString(quoteJSON(string(s)))
		sb.WriteString(":")
		if indent != "" {
			sb.WriteString(" ")
		}
		sb.WriteString(valBuf.String())
		wrote++
	}
	if wrote > 0 {
		newline(sb, indent, curIndent)
	}
	sb.WriteString("}")
	return true, nil
}

func newline(sb *strings.Builder, indent, curIndent string) {
	if indent == "" {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(curIndent)
}

func formatJSONNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func quoteJSON(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Parse decodes text into a runtime.Value tree. Numbers are read with
// json.Decoder.UseNumber, as the teacher's parseJSONString does, and
// each is then converted to a float64 runtime.Number, so integers
// beyond 2^53 lose precision.
func Parse(agent *runtime.Agent, realm *runtime.Realm, text string) (runtime.Value, *errors.LanguageError) {
	var data any
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, errors.NewSyntax("invalid JSON: %s", err)
	}
	return goValueToRuntime(realm, data), nil
}

func goValueToRuntime(realm *runtime.Realm, data any) runtime.Value {
	switch v := data.(type) {
	case nil:
		return runtime.Null
	case bool:
		return runtime.Boolean(v)
	case json.Number:
		f, _ := v.Float64()
		return runtime.Number(f)
	case string:
		return runtime.String(v)
	case []any:
		arr := runtime.NewArrayObject(realm.Intrinsics["%Array.prototype%"])
		for i, elem := range v {
			arr.DefineOwnProperty(runtime.String(strconv.Itoa(i)), runtime.DataProperty(goValueToRuntime(realm, elem), true, true, true))
		}
		return arr
	case map[string]any:
		o := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
		for key, val := range v {
			o.DefineOwnProperty(runtime.String(key), runtime.DataProperty(goValueToRuntime(realm, val), true, true, true))
		}
		return o
	default:
		return runtime.Null
	}
}

// ToYAML renders v as YAML text via a hand-built yaml.Node tree, so
// object key order survives (yaml.Marshal over a plain Go map does
// not promise that, and this debug helper exists specifically so
// fixture output stays stable across runs).
func ToYAML(agent *runtime.Agent, v runtime.Value) (string, *errors.LanguageError) {
	node, err := valueToYAMLNode(agent, v)
	if err != nil {
		return "", err
	}
	out, merr := yaml.Marshal(node)
	if merr != nil {
		return "", errors.New(errors.Error, "%s", merr)
	}
	return string(out), nil
}

func valueToYAMLNode(agent *runtime.Agent, v runtime.Value) (*yaml.Node, *errors.LanguageError) {
	if v == nil || v == runtime.Undefined || v == runtime.Null {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	switch t := v.(type) {
	case runtime.Boolean:
		val := "false"
		if t {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}, nil
	case runtime.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatJSONNumber(float64(t))}, nil
	case runtime.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(t)}, nil
	case *runtime.Object:
		if t.Exotic == runtime.ExoticArray {
			return arrayToYAMLNode(agent, t)
		}
		return objectToYAMLNode(agent, t)
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
}

func arrayToYAMLNode(agent *runtime.Agent, arr *runtime.Object) (*yaml.Node, *errors.LanguageError) {
	lengthV, err := arr.Get(agent, runtime.String("length"), arr)
	if err != nil {
		return nil, err
	}
	n, _ := lengthV.(runtime.Number)
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for i := 0; i < int(n); i++ {
		elem, gerr := arr.Get(agent, runtime.String(strconv.Itoa(i)), arr)
		if gerr != nil {
			return nil, gerr
		}
		child, cerr := valueToYAMLNode(agent, elem)
		if cerr != nil {
			return nil, cerr
		}
		node.Content = append(node.Content, child)
	}
	return node, nil
}

func objectToYAMLNode(agent *runtime.Agent, o *runtime.Object) (*yaml.Node, *errors.LanguageError) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range o.OwnPropertyKeys() {
		s, ok := key.(runtime.String)
		if !ok {
			continue
		}
		desc := o.GetOwnProperty(key)
		if desc == nil || !desc.IsEnumerable() {
			continue
		}
		v, gerr := o.Get(agent, key, o)
		if gerr != nil {
			return nil, gerr
		}
		child, cerr := valueToYAMLNode(agent, v)
		if cerr != nil {
			return nil, cerr
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(s)}, child)
	}
	return node, nil
}
