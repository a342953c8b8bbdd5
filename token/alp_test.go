package token

import (
	"bytes"
	"testing"

	"github.com/zh/minimal-xec-wallet/internal/config"
)

func TestBuildALPSendStructure(t *testing.T) {
	tokenID := fixedTokenID(0xcc)
	script, err := BuildALPSend(tokenID, []uint64{100, 50})
	if err != nil {
		t.Fatalf("BuildALPSend: %v", err)
	}

	if script[0] != 0x6a {
		t.Fatalf("script[0] = %x, want OP_RETURN", script[0])
	}
	i := 1

	prefix, i := nextPush(t, script, i)
	if len(prefix) != 1 || prefix[0] != config.EMPPPushPrefix {
		t.Fatalf("empp prefix push = %x, want [%x]", prefix, config.EMPPPushPrefix)
	}

	section, i := nextPush(t, script, i)
	if i != len(script) {
		t.Fatalf("trailing bytes after single section: %d remain", len(script)-i)
	}

	if !bytes.Equal(section[:4], []byte(config.ALPLokadID)) {
		t.Fatalf("alp lokad = %q, want %q", section[:4], config.ALPLokadID)
	}
	if section[4] != config.ALPSendType {
		t.Fatalf("section type = %x, want %x", section[4], config.ALPSendType)
	}
	if !bytes.Equal(section[5:37], tokenID[:]) {
		t.Fatal("token_id mismatch in alp section")
	}

	amounts := section[37:]
	if len(amounts) != 12 { // two 6-byte little-endian quantities
		t.Fatalf("amounts length = %d, want 12", len(amounts))
	}
	if le6ToUint64(amounts[0:6]) != 100 {
		t.Fatalf("first amount = %d, want 100", le6ToUint64(amounts[0:6]))
	}
	if le6ToUint64(amounts[6:12]) != 50 {
		t.Fatalf("second amount = %d, want 50", le6ToUint64(amounts[6:12]))
	}
}

func le6ToUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 6; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func TestBuildALPBurnUsesBurnType(t *testing.T) {
	tokenID := fixedTokenID(0xdd)
	script, err := BuildALPBurn(tokenID, 42)
	if err != nil {
		t.Fatalf("BuildALPBurn: %v", err)
	}
	i := 1
	_, i = nextPush(t, script, i)
	section, _ := nextPush(t, script, i)
	if section[4] != config.ALPBurnType {
		t.Fatalf("section type = %x, want %x", section[4], config.ALPBurnType)
	}
}

func TestLe6RejectsOverflow(t *testing.T) {
	if _, err := le6(1 << 48); err == nil {
		t.Fatal("expected error for amount exceeding 48 bits")
	}
	if _, err := le6((1 << 48) - 1); err != nil {
		t.Fatalf("le6 at max: %v", err)
	}
}

func TestBuildALPRejectsEmptyAmounts(t *testing.T) {
	if _, err := BuildALPSend(fixedTokenID(1), nil); err == nil {
		t.Fatal("expected error for empty amounts")
	}
}
