package cluster

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"testing"
)

func TestSHA256Hash_Deterministic(t *testing.T) {
	for _, in := range []string{"", "A-VN0", "order-42", "ключ"} {
		if SHA256Hash(in) != SHA256Hash(in) {
			t.Fatalf("hash of %q is not stable", in)
		}
	}
}

func TestSHA256Hash_LittleEndianPrefixWithoutSignBit(t *testing.T) {
	in := "node-A-VN7"
	sum := sha256.Sum256([]byte(in))
	want := binary.LittleEndian.Uint64(sum[:8]) &^ (1 << 63)
	if got := SHA256Hash(in); got != want {
		t.Fatalf("SHA256Hash(%q) = %d, want %d", in, got, want)
	}
}

func TestHashes_Are63Bit(t *testing.T) {
	for i := 0; i < 10_000; i++ {
		in := fmt.Sprintf("input-%d", i)
		if SHA256Hash(in) > math.MaxInt64 || XXHash(in) > math.MaxInt64 {
			t.Fatalf("hash of %q has the sign bit set", in)
		}
	}
}

func TestHashByName(t *testing.T) {
	for _, name := range []string{"", HashSHA256, HashXX} {
		if _, err := HashByName(name); err != nil {
			t.Fatalf("HashByName(%q): %v", name, err)
		}
	}
	if _, err := HashByName("md5"); err == nil {
		t.Fatal("expected error for unknown hash")
	}
}

func TestVirtualNodeLabel(t *testing.T) {
	if got := virtualNodeLabel("A", 12); got != "A-VN12" {
		t.Fatalf("label = %q", got)
	}
}
