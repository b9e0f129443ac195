package diagram

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Result aggregates a validator's findings. Validators never fail fast on
// malformed shapes; every defect becomes an error entry so the caller can
// surface the full list.
type Result struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

func newResult() *Result {
	return &Result{IsValid: true}
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func failure(msg string) Result {
	return Result{IsValid: false, Errors: []string{msg}}
}

// Validate parses the payload and dispatches to the type-specific
// validator. An unrecognized type yields a failure result, not an error.
func Validate(raw json.RawMessage, typeStr string) Result {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return failure("invalid JSON: " + err.Error())
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return failure("invalid JSON: must be an object")
	}

	kind, ok := ParseKind(typeStr)
	if !ok {
		return failure("unsupported diagram type: " + typeStr)
	}
	return *kindValidators[kind](obj)
}

// kindValidators pairs each kind with its structural validator; the key
// space matches kindPrompts.
var kindValidators = map[Kind]func(map[string]any) *Result{
	KindFlowchart: validateFlowchart,
	KindSequence:  validateSequence,
	KindClass:     validateClass,
	KindER:        validateER,
	KindState:     validateState,
	KindMindmap:   validateMindmap,
	KindPie:       validatePie,
	KindTimeline:  validateTimeline,
}

func validateFlowchart(obj map[string]any) *Result {
	res := newResult()

	nodes, hasNodes := asArray(obj["nodes"])
	if !hasNodes || len(nodes) == 0 {
		res.addError(`flowchart must have a non-empty "nodes" array`)
	}
	edges, hasEdges := asArray(obj["edges"])
	if !hasEdges {
		res.addError(`flowchart must have an "edges" array (can be empty)`)
	}
	if !res.IsValid {
		return res
	}

	nodeIDs := map[string]struct{}{}
	for i, n := range nodes {
		switch node := n.(type) {
		case string:
			nodeIDs[node] = struct{}{}
		case map[string]any:
			id, idOK := nonEmptyString(node["id"])
			if !idOK {
				res.addError(`node at index %d missing valid "id"`, i)
			} else {
				nodeIDs[id] = struct{}{}
			}
			label, labelOK := nonEmptyString(node["label"])
			if !labelOK {
				res.addError(`node at index %d missing valid "label"`, i)
			} else if len(label) > 50 {
				res.addWarning("node %q has a long label (%d chars)", id, len(label))
			}
		default:
			res.addError("node at index %d must be a string or object with id/label", i)
		}
	}

	if len(edges) == 0 {
		res.addWarning("flowchart has no edges; nodes will be disconnected")
	}
	for i, e := range edges {
		edge, ok := e.(map[string]any)
		if !ok {
			res.addError("edge at index %d must be an object", i)
			continue
		}
		res.checkEndpoint(edge, "from", i, "edge", "node", nodeIDs)
		res.checkEndpoint(edge, "to", i, "edge", "node", nodeIDs)
	}

	if len(nodes) < 2 {
		res.addWarning("flowchart has fewer than 2 nodes")
	}
	if len(nodes) > 15 {
		res.addWarning("flowchart has more than 15 nodes; consider simplifying")
	}
	return res
}

func validateSequence(obj map[string]any) *Result {
	res := newResult()

	messages, ok := asArray(obj["messages"])
	if !ok || len(messages) == 0 {
		res.addError(`sequence diagram must have a non-empty "messages" array`)
		return res
	}

	participants := map[string]struct{}{}
	for i, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			res.addError("message at index %d must be an object", i)
			continue
		}
		if from, ok := nonEmptyString(msg["from"]); ok {
			participants[from] = struct{}{}
		} else {
			res.addError(`message at index %d missing valid "from" field`, i)
		}
		if to, ok := nonEmptyString(msg["to"]); ok {
			participants[to] = struct{}{}
		} else {
			res.addError(`message at index %d missing valid "to" field`, i)
		}
		text, ok := nonEmptyString(msg["message"])
		if !ok {
			res.addError(`message at index %d missing valid "message" field`, i)
		} else if len(text) > 60 {
			res.addWarning("message at index %d is very long (%d chars)", i, len(text))
		}
	}

	if len(messages) < 2 {
		res.addWarning("sequence diagram has fewer than 2 messages")
	}
	if len(messages) > 20 {
		res.addWarning("sequence diagram has more than 20 messages; consider simplifying")
	}
	if len(participants) < 2 {
		res.addError("sequence diagram must have at least 2 participants")
	}
	if len(participants) > 8 {
		res.addWarning("sequence diagram has %d participants; consider simplifying", len(participants))
	}
	return res
}

func validateClass(obj map[string]any) *Result {
	res := newResult()

	classes, ok := asArray(obj["classes"])
	if !ok || len(classes) == 0 {
		res.addError(`class diagram must have a non-empty "classes" array`)
		return res
	}

	classNames := map[string]struct{}{}
	for i, c := range classes {
		cls, ok := c.(map[string]any)
		if !ok {
			res.addError("class at index %d must be an object", i)
			continue
		}
		name, nameOK := nonEmptyString(cls["name"])
		if !nameOK {
			res.addError(`class at index %d missing valid "name" field`, i)
		} else {
			if _, dup := classNames[name]; dup {
				res.addError("duplicate class name: %q", name)
			}
			classNames[name] = struct{}{}
		}

		attrs, attrsPresent := cls["attributes"]
		attrList, attrsOK := asArray(attrs)
		if attrsPresent && attrs != nil && !attrsOK {
			res.addError(`class %q has invalid "attributes" (must be array)`, name)
		}
		methods, methodsPresent := cls["methods"]
		methodList, methodsOK := asArray(methods)
		if methodsPresent && methods != nil && !methodsOK {
			res.addError(`class %q has invalid "methods" (must be array)`, name)
		}
		if len(attrList) == 0 && len(methodList) == 0 {
			res.addWarning("class %q has no attributes or methods", name)
		}
	}

	if relations, ok := asArray(obj["relations"]); ok {
		for i, r := range relations {
			rel, ok := r.(map[string]any)
			if !ok {
				res.addError("relation at index %d must be an object", i)
				continue
			}
			res.checkEndpoint(rel, "from", i, "relation", "class", classNames)
			res.checkEndpoint(rel, "to", i, "relation", "class", classNames)
		}
	}
	return res
}

func validateER(obj map[string]any) *Result {
	res := newResult()

	entities, ok := asArray(obj["entities"])
	if !ok || len(entities) == 0 {
		res.addError(`ER diagram must have a non-empty "entities" array`)
		return res
	}

	entityNames := map[string]struct{}{}
	for i, e := range entities {
		entity, ok := e.(map[string]any)
		if !ok {
			res.addError("entity at index %d must be an object", i)
			continue
		}
		name, nameOK := nonEmptyString(entity["name"])
		if !nameOK {
			res.addError(`entity at index %d missing valid "name" field`, i)
		} else {
			if _, dup := entityNames[name]; dup {
				res.addError("duplicate entity name: %q", name)
			}
			entityNames[name] = struct{}{}
		}

		fields, fieldsOK := asArray(entity["fields"])
		if !fieldsOK || len(fields) == 0 {
			res.addError(`entity %q must have a non-empty "fields" array`, name)
			continue
		}
		for j, f := range fields {
			field, ok := f.(map[string]any)
			if !ok {
				res.addError("entity %q, field at index %d must be an object", name, j)
				continue
			}
			if _, ok := nonEmptyString(field["type"]); !ok {
				res.addError(`entity %q, field at index %d missing valid "type"`, name, j)
			}
			if _, ok := nonEmptyString(field["name"]); !ok {
				res.addError(`entity %q, field at index %d missing valid "name"`, name, j)
			}
		}
		if first, ok := fields[0].(map[string]any); ok {
			if fname, _ := nonEmptyString(first["name"]); fname != "id" {
				res.addWarning(`entity %q should typically start with an "id" field`, name)
			}
		}
	}

	if relations, ok := asArray(obj["relations"]); ok {
		for i, r := range relations {
			rel, ok := r.(map[string]any)
			if !ok {
				res.addError("relation at index %d must be an object", i)
				continue
			}
			res.checkEndpoint(rel, "from", i, "relation", "entity", entityNames)
			res.checkEndpoint(rel, "to", i, "relation", "entity", entityNames)
		}
	}
	return res
}

func validateState(obj map[string]any) *Result {
	res := newResult()

	states, ok := asArray(obj["states"])
	if !ok || len(states) == 0 {
		res.addError(`state diagram must have a non-empty "states" array`)
		return res
	}
	transitions, hasTransitions := asArray(obj["transitions"])
	if !hasTransitions {
		res.addError(`state diagram must have a "transitions" array`)
	}

	stateNames := map[string]struct{}{}
	for i, s := range states {
		switch state := s.(type) {
		case string:
			stateNames[state] = struct{}{}
		case map[string]any:
			if name, ok := nonEmptyString(state["name"]); ok {
				stateNames[name] = struct{}{}
			} else {
				res.addError(`state at index %d missing valid "name" field`, i)
			}
		default:
			res.addError(`state at index %d must be a string or object with "name"`, i)
		}
	}

	if len(transitions) == 0 && hasTransitions {
		res.addWarning("state diagram has no transitions; states will be disconnected")
	}
	for i, t := range transitions {
		trans, ok := t.(map[string]any)
		if !ok {
			res.addError("transition at index %d must be an object", i)
			continue
		}
		res.checkEndpoint(trans, "from", i, "transition", "state", stateNames)
		res.checkEndpoint(trans, "to", i, "transition", "state", stateNames)
		if _, ok := nonEmptyString(trans["label"]); !ok {
			res.addError(`transition at index %d missing valid "label" field`, i)
		}
	}

	if len(states) < 2 {
		res.addWarning("state diagram has fewer than 2 states")
	}
	return res
}

func validateMindmap(obj map[string]any) *Result {
	res := newResult()

	root, ok := obj["root"].(map[string]any)
	if !ok {
		res.addError(`mindmap must have a "root" object`)
		return res
	}
	validateMindmapNode(res, root, "root")
	return res
}

func validateMindmapNode(res *Result, node map[string]any, path string) {
	text, ok := nonEmptyString(node["text"])
	if !ok {
		res.addError(`node at path %q missing valid "text" field`, path)
	} else if len(text) > 40 {
		res.addWarning("node at path %q has long text (%d chars)", path, len(text))
	}

	children, present := node["children"]
	if !present || children == nil {
		return
	}
	list, ok := asArray(children)
	if !ok {
		res.addError(`node at path %q has invalid "children" (must be array)`, path)
		return
	}
	for i, c := range list {
		child, ok := c.(map[string]any)
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		if !ok {
			res.addError("node at path %q must be an object", childPath)
			continue
		}
		validateMindmapNode(res, child, childPath)
	}
}

func validatePie(obj map[string]any) *Result {
	res := newResult()

	if title, present := obj["title"]; present && title != nil {
		if _, ok := nonEmptyString(title); !ok {
			res.addError(`pie chart "title" must be a non-empty string if provided`)
		}
	}

	slices, ok := asArray(obj["slices"])
	if !ok || len(slices) == 0 {
		res.addError(`pie chart must have a non-empty "slices" array`)
		return res
	}

	for i, s := range slices {
		slice, ok := s.(map[string]any)
		if !ok {
			res.addError("slice at index %d must be an object", i)
			continue
		}
		if _, ok := nonEmptyString(slice["label"]); !ok {
			res.addError(`slice at index %d missing valid "label"`, i)
		}
		if v, ok := asNumber(slice["value"]); !ok || v <= 0 {
			res.addError(`slice at index %d missing valid positive "value"`, i)
		}
	}

	if len(slices) < 2 {
		res.addWarning("pie chart should have at least 2 slices")
	}
	if len(slices) > 8 {
		res.addWarning("pie chart has %d slices; consider grouping smaller values", len(slices))
	}
	return res
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearPattern = regexp.MustCompile(`^\d{4}$`)
)

func validateTimeline(obj map[string]any) *Result {
	res := newResult()

	events, ok := asArray(obj["events"])
	if !ok || len(events) == 0 {
		res.addError(`timeline must have a non-empty "events" array`)
		return res
	}

	for i, e := range events {
		event, ok := e.(map[string]any)
		if !ok {
			res.addError("event at index %d must be an object", i)
			continue
		}
		date, hasDate := nonEmptyString(event["date"])
		year := normalizeYear(event["year"])
		if !hasDate && year == "" {
			res.addError(`event at index %d must have either "date" or "year" field`, i)
		}
		if _, ok := nonEmptyString(event["title"]); !ok {
			res.addError(`event at index %d missing valid "title"`, i)
		}
		if hasDate && !datePattern.MatchString(date) {
			res.addWarning("event at index %d has non-standard date format, expected YYYY-MM", i)
		}
		if year != "" && !yearPattern.MatchString(year) {
			res.addWarning("event at index %d has invalid year format, expected YYYY", i)
		}
	}

	if len(events) < 2 {
		res.addWarning("timeline should have at least 2 events")
	}
	return res
}

func (r *Result) checkEndpoint(obj map[string]any, field string, index int, owner, target string, known map[string]struct{}) {
	val, ok := nonEmptyString(obj[field])
	if !ok {
		r.addError("%s at index %d missing valid %q field", owner, index, field)
		return
	}
	if _, exists := known[val]; !exists {
		r.addError("%s at index %d references non-existent %s: %q", owner, index, target, val)
	}
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func asArray(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

func asNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalizeYear accepts both string and numeric year values.
func normalizeYear(v any) string {
	switch y := v.(type) {
	case string:
		return strings.TrimSpace(y)
	case float64:
		return fmt.Sprintf("%.0f", y)
	default:
		return ""
	}
}
