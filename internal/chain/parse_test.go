package chain

import (
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x98882c197445a025824f6f403363a3fdb200ddad ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := addr.Hex(); !strings.EqualFold(got, "0x98882c197445a025824f6f403363a3fdb200ddad") {
		t.Fatalf("unexpected address: %s", got)
	}
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestParseTopic(t *testing.T) {
	topic, err := ParseTopic("0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.Hex() != "0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822" {
		t.Fatalf("unexpected topic: %s", topic.Hex())
	}
	if _, err := ParseTopic("0xd78a"); err == nil {
		t.Fatalf("expected error for short topic")
	}
	if _, err := ParseTopic("zz"); err == nil {
		t.Fatalf("expected error for non-hex topic")
	}
}
