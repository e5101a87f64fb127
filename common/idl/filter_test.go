package idl

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"varlink.org/varlink/common/protocol"
)

const filterTestDescription = `interface org.example.filter
type Color (red, green, blue)
type Point (x: int, y: int)
method Test(
  n: ?int,
  f: ?float,
  b: ?bool,
  s: ?string,
  color: ?Color,
  point: ?Point,
  seq: ?[]int,
  dict: ?[string]string,
  tags: ?[string](),
  blob: ?object
) -> ()
`

func filterInterface(t *testing.T) *Interface {
	iface, err := NewInterface(filterTestDescription)
	if err != nil {
		t.Fatal(err)
	}
	return iface
}

func testMethod(t *testing.T, iface *Interface) *Method {
	method, err := iface.GetMethod("Test")
	if err != nil {
		t.Fatal(err)
	}
	return method
}

func invalidParameterName(t *testing.T, err error) string {
	serviceErr, ok := err.(*protocol.ServiceError)
	if !ok {
		t.Fatalf("not a service error: %v", err)
	}
	if serviceErr.Name != protocol.ErrorInvalidParameter {
		t.Fatal("wrong error name:", serviceErr.Name)
	}
	name, _ := serviceErr.Parameters["parameter"].(string)
	return name
}

func TestFilterIntCoercion(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	out, err := iface.FilterParams("server.call", method.In, map[string]interface{}{"n": float64(1)})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]interface{})["n"] != int64(1) {
		t.Fatal("number not coerced to int:", out)
	}

	// round half up
	out, err = iface.FilterParams("server.call", method.In, map[string]interface{}{"n": 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]interface{})["n"] != int64(2) {
		t.Fatal("1.5 not rounded to 2:", out)
	}

	// exact integers pass through unshifted, negative ones included
	out, err = iface.FilterParams("server.call", method.In, map[string]interface{}{"n": float64(-2)})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]interface{})["n"] != int64(-2) {
		t.Fatal("-2 mangled:", out)
	}

	_, err = iface.FilterParams("server.call", method.In, map[string]interface{}{"n": "1"})
	if err == nil {
		t.Fatal("string accepted as int")
	}
	if name := invalidParameterName(t, err); name != "n" {
		t.Fatal("wrong parameter path:", name)
	}
}

func TestFilterFloatAcceptsInt(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	out, err := iface.FilterParams("server.reply", method.In, map[string]interface{}{"f": int64(1)})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]interface{})["f"] != float64(1) {
		t.Fatal("int not widened to float:", out)
	}
}

func TestFilterStrictBoolAndString(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	if _, err := iface.FilterParams("server.call", method.In, map[string]interface{}{"b": "true"}); err == nil {
		t.Fatal("string accepted as bool")
	}
	if _, err := iface.FilterParams("server.call", method.In, map[string]interface{}{"s": 1.0}); err == nil {
		t.Fatal("number accepted as string")
	}
}

func TestFilterMaybeAbsent(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	// both a missing field and an explicit null stay out of the output
	out, err := iface.FilterParams("server.call", method.In, map[string]interface{}{"s": nil})
	if err != nil {
		t.Fatal(err)
	}
	result := out.(map[string]interface{})
	if _, present := result["s"]; present {
		t.Fatal("null maybe field kept:", result)
	}
	if len(result) != 0 {
		t.Fatal("unexpected fields:", result)
	}
}

func TestFilterEnum(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	out, err := iface.FilterParams("server.call", method.In, map[string]interface{}{"color": "green"})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]interface{})["color"] != "green" {
		t.Fatal("enum tag lost")
	}

	_, err = iface.FilterParams("server.call", method.In, map[string]interface{}{"color": "purple"})
	if name := invalidParameterName(t, err); name != "color" {
		t.Fatal("wrong parameter path:", name)
	}
}

func TestFilterNestedPath(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	_, err := iface.FilterParams("server.call", method.In, map[string]interface{}{
		"point": map[string]interface{}{"x": 1.0, "y": "nope"},
	})
	if name := invalidParameterName(t, err); name != "point.y" {
		t.Fatal("wrong parameter path:", name)
	}
}

func TestFilterUnknownFieldInbound(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	_, err := iface.FilterParams("server.call", method.In, map[string]interface{}{
		"point": map[string]interface{}{"x": 1.0, "z": 3.0},
	})
	if name := invalidParameterName(t, err); name != "point.z" {
		t.Fatal("wrong parameter path:", name)
	}

	// outbound contexts drop undeclared fields silently
	out, err := iface.FilterParams("server.reply", method.In, map[string]interface{}{
		"point": map[string]interface{}{"x": 1.0, "z": 3.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	point := out.(map[string]interface{})["point"].(map[string]interface{})
	if _, present := point["z"]; present {
		t.Fatal("undeclared field kept on outbound filter")
	}
}

func TestFilterArrayAndMapDefaults(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	out, err := iface.FilterParams("server.call", method.In, map[string]interface{}{
		"seq":  []interface{}{1.0, 2.0, 3.0},
		"dict": map[string]interface{}{"a": "x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	result := out.(map[string]interface{})
	expected := []interface{}{int64(1), int64(2), int64(3)}
	if diff := cmp.Diff(expected, result["seq"]); diff != "" {
		t.Fatal("array mismatch:", diff)
	}
	if diff := cmp.Diff(map[string]interface{}{"a": "x"}, result["dict"]); diff != "" {
		t.Fatal("map mismatch:", diff)
	}
}

func TestFilterSetNormalization(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	// wire shape: map with empty-object values
	out, err := iface.FilterParams("client.reply", method.In, map[string]interface{}{
		"tags": map[string]interface{}{"one": map[string]interface{}{}, "two": map[string]interface{}{}},
	})
	if err != nil {
		t.Fatal(err)
	}
	tags := out.(map[string]interface{})["tags"].(StringSet)
	if len(tags) != 2 || !tags.Has("one") || !tags.Has("two") {
		t.Fatal("set not normalized from wire shape:", tags)
	}

	// handler shape: list of strings
	out, err = iface.FilterParams("server.reply", method.In, map[string]interface{}{
		"tags": []string{"one", "two", "three"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tags = out.(map[string]interface{})["tags"].(StringSet)
	if len(tags) != 3 {
		t.Fatal("set not normalized from string list:", tags)
	}
}

func TestStringSetWireEncoding(t *testing.T) {
	tags := StringSet{"one": {}, "two": {}, "three": {}}
	encoded, err := json.Marshal(tags)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 3 {
		t.Fatal("wrong number of tags:", decoded)
	}
	for tag, value := range decoded {
		object, ok := value.(map[string]interface{})
		if !ok || len(object) != 0 {
			t.Fatalf("tag %s not encoded as empty object: %v", tag, value)
		}
	}
}

func TestFilterSetRoundTrip(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	// server encodes, client decodes; the set survives
	out, err := iface.FilterParams("server.reply", method.In, map[string]interface{}{
		"tags": []string{"one", "two", "three"},
	})
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}

	var wire map[string]interface{}
	if err := json.Unmarshal(encoded, &wire); err != nil {
		t.Fatal(err)
	}
	back, err := iface.FilterParams("client.reply", method.In, wire)
	if err != nil {
		t.Fatal(err)
	}
	tags := back.(map[string]interface{})["tags"].(StringSet)
	if len(tags) != 3 || !tags.Has("one") || !tags.Has("two") || !tags.Has("three") {
		t.Fatal("set did not round-trip:", tags)
	}
}

func TestFilterObjectPassthrough(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	blob := map[string]interface{}{"anything": []interface{}{1.0, nil, "x"}}
	out, err := iface.FilterParams("server.call", method.In, map[string]interface{}{"blob": blob})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(blob, out.(map[string]interface{})["blob"]); diff != "" {
		t.Fatal("object modified:", diff)
	}
}

func TestFilterCustomRefResolution(t *testing.T) {
	iface := filterInterface(t)
	method := testMethod(t, iface)

	out, err := iface.FilterParams("server.call", method.In, map[string]interface{}{
		"point": map[string]interface{}{"x": 1.0, "y": 2.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]interface{}{"x": int64(1), "y": int64(2)}
	if diff := cmp.Diff(expected, out.(map[string]interface{})["point"]); diff != "" {
		t.Fatal("custom type not resolved:", diff)
	}
}

func TestFilterPositionalStruct(t *testing.T) {
	iface, err := NewInterface("interface org.example.pos\nmethod M(a: int, b: string) -> ()\n")
	if err != nil {
		t.Fatal(err)
	}
	method, err := iface.GetMethod("M")
	if err != nil {
		t.Fatal(err)
	}

	out, err := iface.FilterParams("client.call", method.In, []interface{}{7.0, "x"})
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]interface{}{"a": int64(7), "b": "x"}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatal("positional struct mismatch:", diff)
	}
}

func TestFilterMissingRequiredField(t *testing.T) {
	iface, err := NewInterface("interface org.example.req\nmethod M(a: int) -> ()\n")
	if err != nil {
		t.Fatal(err)
	}
	method, err := iface.GetMethod("M")
	if err != nil {
		t.Fatal(err)
	}

	// the dispatcher substitutes Absent for missing declared fields
	_, err = iface.FilterParams("server.call", method.In, map[string]interface{}{"a": Absent})
	if name := invalidParameterName(t, err); name != "a" {
		t.Fatal("wrong parameter path:", name)
	}
}
