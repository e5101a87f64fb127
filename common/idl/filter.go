package idl

import (
	"math"

	"varlink.org/varlink/common/protocol"
)

// GetMethod returns the named method member, or a MethodNotFound
// service error when the member is missing or not a method.
func (iface *Interface) GetMethod(name string) (*Method, error) {
	if member, ok := iface.members[name]; ok {
		if method, ok := member.(*Method); ok {
			return method, nil
		}
	}
	return nil, protocol.MethodNotFoundError(name)
}

// inbound contexts reject undeclared struct fields; outbound contexts
// silently drop them.
func inboundContext(ctx string) bool {
	return ctx == "server.call" || ctx == "client.reply"
}

// FilterParams validates a decoded JSON value against a type node and
// returns its normalized form. It is used on all four call sites:
// client outbound parameters ("client.call"), client inbound replies
// ("client.reply"), server inbound parameters ("server.call") and
// server outbound replies ("server.reply"). Mismatches produce an
// InvalidParameter service error carrying the dotted field path.
func (iface *Interface) FilterParams(ctx string, t *Type, value interface{}) (interface{}, error) {
	return iface.filterParams(ctx, "", t, value)
}

func (iface *Interface) filterParams(ctx, path string, t *Type, value interface{}) (interface{}, error) {
	if t == nil {
		return nil, invalidParameter(ctx, path)
	}

	switch t.Kind {
	case KindMaybe:
		if value == nil || value == Absent {
			return Absent, nil
		}
		return iface.filterParams(ctx, path, t.Elem, value)

	case KindCustom:
		member, ok := iface.members[t.Name]
		if !ok {
			return nil, invalidParameter(ctx, path)
		}
		alias, ok := member.(*Alias)
		if !ok {
			return nil, invalidParameter(ctx, path)
		}
		return iface.filterParams(ctx, path, alias.Type, value)

	case KindObject:
		if value == Absent {
			return Absent, nil
		}
		return value, nil

	case KindMap:
		if value == nil || value == Absent {
			return map[string]interface{}{}, nil
		}
		mapping, ok := value.(map[string]interface{})
		if !ok {
			return nil, invalidParameter(ctx, path)
		}
		out := make(map[string]interface{}, len(mapping))
		for key, element := range mapping {
			filtered, err := iface.filterParams(ctx, path+"["+key+"]", t.Elem, element)
			if err != nil {
				return nil, err
			}
			if filtered != Absent {
				out[key] = filtered
			}
		}
		return out, nil

	case KindArray:
		if value == nil || value == Absent {
			return []interface{}{}, nil
		}
		var elements []interface{}
		switch sequence := value.(type) {
		case []interface{}:
			elements = sequence
		case []string:
			elements = make([]interface{}, len(sequence))
			for i, s := range sequence {
				elements[i] = s
			}
		default:
			return nil, invalidParameter(ctx, path)
		}
		out := make([]interface{}, 0, len(elements))
		for _, element := range elements {
			filtered, err := iface.filterParams(ctx, path+"[]", t.Elem, element)
			if err != nil {
				return nil, err
			}
			if filtered != Absent {
				out = append(out, filtered)
			}
		}
		return out, nil

	case KindSet:
		return filterSet(ctx, path, value)

	case KindEnum:
		if tag, ok := value.(string); ok && t.HasTag(tag) {
			return tag, nil
		}
		return nil, invalidParameter(ctx, path)

	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, invalidParameter(ctx, path)

	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, invalidParameter(ctx, path)

	case KindFloat:
		switch n := value.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, invalidParameter(ctx, path)

	case KindInt:
		switch n := value.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			return roundToInt(n), nil
		case float32:
			return roundToInt(float64(n)), nil
		}
		return nil, invalidParameter(ctx, path)

	case KindStruct:
		return iface.filterStruct(ctx, path, t, value)
	}

	return nil, invalidParameter(ctx, path)
}

func (iface *Interface) filterStruct(ctx, path string, t *Type, value interface{}) (interface{}, error) {
	out := map[string]interface{}{}

	switch source := value.(type) {
	case nil:
		return out, nil

	case []interface{}:
		// positional values are assigned in declaration order
		for i, field := range t.Fields {
			if i >= len(source) {
				break
			}
			filtered, err := iface.filterParams(ctx, fieldPath(path, field.Name), field.Type, source[i])
			if err != nil {
				return nil, err
			}
			if filtered != Absent {
				out[field.Name] = filtered
			}
		}
		return out, nil

	case map[string]interface{}:
		if inboundContext(ctx) {
			for name := range source {
				if !t.hasField(name) {
					return nil, invalidParameter(ctx, fieldPath(path, name))
				}
			}
		}
		for _, field := range t.Fields {
			fieldValue, present := source[field.Name]
			if !present {
				continue
			}
			filtered, err := iface.filterParams(ctx, fieldPath(path, field.Name), field.Type, fieldValue)
			if err != nil {
				return nil, err
			}
			if filtered != Absent {
				out[field.Name] = filtered
			}
		}
		return out, nil
	}

	if value == Absent {
		return out, nil
	}
	return nil, invalidParameter(ctx, path)
}

// filterSet normalizes the two accepted wire shapes of a set, a list of
// strings or a map with ignored values, into a StringSet.
func filterSet(ctx, path string, value interface{}) (interface{}, error) {
	switch source := value.(type) {
	case nil:
		return StringSet{}, nil
	case StringSet:
		out := make(StringSet, len(source))
		for tag := range source {
			out[tag] = struct{}{}
		}
		return out, nil
	case map[string]interface{}:
		out := make(StringSet, len(source))
		for tag := range source {
			out[tag] = struct{}{}
		}
		return out, nil
	case []interface{}:
		out := make(StringSet, len(source))
		for _, element := range source {
			tag, ok := element.(string)
			if !ok {
				return nil, invalidParameter(ctx, path+"[]")
			}
			out[tag] = struct{}{}
		}
		return out, nil
	case []string:
		out := make(StringSet, len(source))
		for _, tag := range source {
			out[tag] = struct{}{}
		}
		return out, nil
	}
	if value == Absent {
		return StringSet{}, nil
	}
	return nil, invalidParameter(ctx, path)
}

// roundToInt rounds half up. JSON decoding hands over every number as
// a float, so exact integers must pass through unshifted.
func roundToInt(n float64) int64 {
	if n == math.Trunc(n) {
		return int64(n)
	}
	return int64(math.Floor(n + 0.5))
}

func fieldPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func invalidParameter(ctx, path string) error {
	if path == "" {
		path = ctx
	}
	return protocol.InvalidParameterError(path)
}
