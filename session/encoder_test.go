package session

import (
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeRecord(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	cases := []Record{
		{Token: "tok-1", LastActivity: now},
		{Token: "tok-2", LastActivity: now, Aux: []byte("opaque payload")},
		{Token: "", LastActivity: time.UnixMilli(0)},
	}

	for i, rec := range cases {
		data, err := EncodeRecord(rec)
		if err != nil {
			t.Fatalf("case %d: encode: %v", i, err)
		}
		got, err := DecodeRecord(data)
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if got.Token != rec.Token {
			t.Fatalf("case %d: token = %q, want %q", i, got.Token, rec.Token)
		}
		if !got.LastActivity.Equal(rec.LastActivity) {
			t.Fatalf("case %d: lastActivity = %v, want %v", i, got.LastActivity, rec.LastActivity)
		}
		if string(got.Aux) != string(rec.Aux) {
			t.Fatalf("case %d: aux = %q, want %q", i, got.Aux, rec.Aux)
		}
	}
}

func TestEncodeRecordLimits(t *testing.T) {
	if _, err := EncodeRecord(Record{Token: strings.Repeat("x", 256)}); err == nil {
		t.Fatal("expected error for oversized token")
	}
	if _, err := EncodeRecord(Record{Token: "t", Aux: make([]byte, 1<<16)}); err == nil {
		t.Fatal("expected error for oversized aux")
	}
}

func TestDecodeRecordRejectsCorruption(t *testing.T) {
	data, err := EncodeRecord(Record{Token: "tok", LastActivity: time.Now(), Aux: []byte("aux")})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// truncations at every boundary
	for cut := 0; cut < len(data); cut++ {
		if _, err := DecodeRecord(data[:cut]); err == nil {
			t.Fatalf("truncated at %d decoded without error", cut)
		}
	}

	// trailing junk
	if _, err := DecodeRecord(append(append([]byte(nil), data...), 0x00)); err == nil {
		t.Fatal("trailing bytes decoded without error")
	}

	// unknown version
	bad := append([]byte(nil), data...)
	bad[0] = 99
	if _, err := DecodeRecord(bad); err == nil {
		t.Fatal("unknown version decoded without error")
	}
}
