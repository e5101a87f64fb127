package address

import (
	"testing"
)

func TestParseUnix(t *testing.T) {
	addr, err := Parse("unix:/run/org.example.more")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Kind != KindUnix || addr.Path != "/run/org.example.more" || addr.Abstract {
		t.Fatalf("wrong parse: %+v", addr)
	}
}

func TestParseUnixWithMode(t *testing.T) {
	addr, err := Parse("unix:/run/org.example.more;mode=0660")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Path != "/run/org.example.more" || addr.Mode != "0660" {
		t.Fatalf("wrong parse: %+v", addr)
	}
}

func TestParseUnixAbstract(t *testing.T) {
	addr, err := Parse("unix:@org.example.more")
	if err != nil {
		t.Fatal(err)
	}
	if !addr.Abstract || addr.Path != "org.example.more" {
		t.Fatalf("wrong parse: %+v", addr)
	}
	if addr.Mode != "" {
		t.Fatal("abstract sockets have no mode")
	}
}

func TestParseTCP(t *testing.T) {
	addr, err := Parse("tcp:127.0.0.1:12345")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Kind != KindTCP || addr.Host != "127.0.0.1" || addr.Port != "12345" {
		t.Fatalf("wrong parse: %+v", addr)
	}
}

func TestParseTCPv6(t *testing.T) {
	addr, err := Parse("tcp:[::1]:12345")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Host != "::1" || addr.Port != "12345" {
		t.Fatalf("wrong parse: %+v", addr)
	}
}

func TestParseExec(t *testing.T) {
	addr, err := Parse("exec:/usr/bin/varlinkd --flag 'an arg'")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Kind != KindExec {
		t.Fatalf("wrong kind: %+v", addr)
	}
	expected := []string{"/usr/bin/varlinkd", "--flag", "an arg"}
	if len(addr.Argv) != len(expected) {
		t.Fatal("wrong argv:", addr.Argv)
	}
	for i := range expected {
		if addr.Argv[i] != expected[i] {
			t.Fatal("wrong argv:", addr.Argv)
		}
	}
}

func TestParseBridge(t *testing.T) {
	addr, err := Parse("bridge:ssh host varlink bridge")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Kind != KindBridge || len(addr.Argv) != 4 {
		t.Fatalf("wrong parse: %+v", addr)
	}
}

func TestParseInvalid(t *testing.T) {
	invalid := []string{
		"",
		"bogus:whatever",
		"tcp:noport",
		"unix:",
		"exec:",
	}
	for _, address := range invalid {
		if _, err := Parse(address); err == nil {
			t.Fatalf("%q accepted", address)
		}
	}
}

func TestStringKeepsOriginal(t *testing.T) {
	original := "unix:/run/org.example.more;mode=0660"
	addr, err := Parse(original)
	if err != nil {
		t.Fatal(err)
	}
	if addr.String() != original {
		t.Fatal("address string changed:", addr.String())
	}
}
