package domain

import "testing"

func TestNewSpaceValidation(t *testing.T) {
	if _, err := NewSpace(0, 3); err == nil {
		t.Fatal("expected error for zero bits")
	}
	if _, err := NewSpace(8, 0); err == nil {
		t.Fatal("expected error for zero successor list size")
	}
	sp, err := NewSpace(13, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sp.ByteLen != 2 {
		t.Fatalf("expected ByteLen 2 for 13 bits, got %d", sp.ByteLen)
	}
}

func TestBucketizeWithinSpace(t *testing.T) {
	sp, _ := NewSpace(13, 3)
	id := sp.Bucketize("127.0.0.1:5000")
	if err := sp.IsValidID(id); err != nil {
		t.Fatalf("bucketized id not valid: %v", err)
	}
}

func TestBucketizeDeterministic(t *testing.T) {
	sp, _ := NewSpace(16, 3)
	a := sp.Bucketize("node-a")
	b := sp.Bucketize("node-a")
	if !a.Equal(b) {
		t.Fatal("bucketize should be deterministic for the same input")
	}
}

func TestFromHexStringRoundTrip(t *testing.T) {
	sp, _ := NewSpace(16, 3)
	id := sp.Bucketize("some-key")
	hexStr := id.ToHexString(false)
	back, err := sp.FromHexString(hexStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.Equal(back) {
		t.Fatal("round trip through hex changed the id")
	}
}

func TestFromHexStringRejectsOutOfRange(t *testing.T) {
	sp, _ := NewSpace(4, 3) // 1 byte, top 4 bits must be zero
	if _, err := sp.FromHexString("ff"); err == nil {
		t.Fatal("expected error for value exceeding 4-bit space")
	}
}

func TestAddPowerOfTwoModWraps(t *testing.T) {
	sp, _ := NewSpace(8, 3)
	id := sp.FromUint64(250)
	got := sp.AddPowerOfTwoMod(id, 3) // 250 + 8 = 258 mod 256 = 2
	want := sp.FromUint64(2)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.ToHexString(false), got.ToHexString(false))
	}
}

func TestBetweenLinear(t *testing.T) {
	sp, _ := NewSpace(8, 3)
	lower := sp.FromUint64(10)
	higher := sp.FromUint64(20)

	if !Between(sp.FromUint64(15), lower, higher) {
		t.Fatal("15 should be between 10 and 20")
	}
	if Between(sp.FromUint64(10), lower, higher) {
		t.Fatal("lower endpoint must be excluded")
	}
	if Between(sp.FromUint64(20), lower, higher) {
		t.Fatal("higher endpoint must be excluded")
	}
	if Between(sp.FromUint64(25), lower, higher) {
		t.Fatal("25 should not be between 10 and 20")
	}
}

func TestBetweenWrapAround(t *testing.T) {
	sp, _ := NewSpace(8, 3)
	lower := sp.FromUint64(250)
	higher := sp.FromUint64(5)

	if !Between(sp.FromUint64(0), lower, higher) {
		t.Fatal("0 should be between 250 and 5 (wrap-around)")
	}
	if !Between(sp.FromUint64(252), lower, higher) {
		t.Fatal("252 should be between 250 and 5 (wrap-around)")
	}
	if Between(sp.FromUint64(100), lower, higher) {
		t.Fatal("100 should not be between 250 and 5")
	}
}

func TestBetweenTrueForAllWhenEqual(t *testing.T) {
	sp, _ := NewSpace(8, 3)
	id := sp.FromUint64(42)
	if !Between(sp.FromUint64(1), id, id) {
		t.Fatal("Between must report true for every point other than lower when lower == higher")
	}
	if Between(id, id, id) {
		t.Fatal("Between must report false at the point itself when lower == higher")
	}
}

func TestNodeEqualByAddress(t *testing.T) {
	sp, _ := NewSpace(8, 3)
	a := &Node{ID: sp.FromUint64(1), Addr: "host:1"}
	b := &Node{ID: sp.FromUint64(2), Addr: "host:1"}
	if !a.Equal(b) {
		t.Fatal("nodes with the same address should be equal regardless of ID")
	}
	c := &Node{ID: sp.FromUint64(1), Addr: "host:2"}
	if a.Equal(c) {
		t.Fatal("nodes with different addresses should not be equal")
	}
}
