package txbuilder

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

func testKeyAndScript(t *testing.T) (*btcec.PrivateKey, []byte) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hash := xeccrypto.Hash160(priv.PubKey().SerializeCompressed())
	script, err := P2PKHScript(hash)
	if err != nil {
		t.Fatalf("P2PKHScript: %v", err)
	}
	return priv, script
}

func TestBuildAndSignProducesSerializedTx(t *testing.T) {
	priv, script := testKeyAndScript(t)

	input := Input{
		TxID:     strings.Repeat("ab", 32),
		Vout:     0,
		Value:    100_000,
		PKScript: script,
		PrivKey:  priv,
	}
	output := Output{Value: 90_000, Script: script}

	built, err := BuildAndSign([]Input{input}, []Output{output})
	if err != nil {
		t.Fatalf("BuildAndSign: %v", err)
	}
	if built.TxHex == "" || built.TxID == "" {
		t.Fatal("expected a non-empty hex and txid")
	}
	if built.Size*2 != len(built.TxHex) {
		t.Fatalf("Size = %d does not match hex length %d", built.Size, len(built.TxHex))
	}
}

func TestBuildAndSignSignatureVerifiesAgainstDigest(t *testing.T) {
	priv, script := testKeyAndScript(t)
	pub := priv.PubKey()

	input := Input{
		TxID:     strings.Repeat("cd", 32),
		Vout:     1,
		Value:    50_000,
		PKScript: script,
		PrivKey:  priv,
	}
	output := Output{Value: 40_000, Script: script}

	msgTx := wire.NewMsgTx(txVersion)
	hash, err := chainhash.NewHashFromStr(input.TxID)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	txIn := wire.NewTxIn(wire.NewOutPoint(hash, input.Vout), nil, nil)
	txIn.Sequence = wire.MaxTxInSequenceNum
	msgTx.AddTxIn(txIn)
	msgTx.AddTxOut(wire.NewTxOut(output.Value, output.Script))

	digest := sighashALLForkID(msgTx, 0, input.PKScript, input.Value)

	built, err := BuildAndSign([]Input{input}, []Output{output})
	if err != nil {
		t.Fatalf("BuildAndSign: %v", err)
	}
	raw, err := hex.DecodeString(built.TxHex)
	if err != nil {
		t.Fatalf("decode tx hex: %v", err)
	}
	var signed wire.MsgTx
	if err := signed.Deserialize(bytes.NewReader(raw)); err != nil {
		t.Fatalf("deserialize tx: %v", err)
	}
	pushes, err := txscript.PushedData(signed.TxIn[0].SignatureScript)
	if err != nil || len(pushes) != 2 {
		t.Fatalf("scriptSig pushes = %d, err = %v; want <sig> <pubkey>", len(pushes), err)
	}
	sigWithHashType := pushes[0]
	sig, err := ecdsa.ParseDERSignature(sigWithHashType[:len(sigWithHashType)-1])
	if err != nil {
		t.Fatalf("parse signature: %v", err)
	}

	if !sig.Verify(digest, pub) {
		t.Fatal("BuildAndSign's signature does not verify against the recomputed digest and pubkey")
	}
}

func TestBuildAndSignRejectsDustOutput(t *testing.T) {
	priv, script := testKeyAndScript(t)

	input := Input{TxID: strings.Repeat("ef", 32), Vout: 0, Value: 10_000, PKScript: script, PrivKey: priv}
	output := Output{Value: 100, Script: script} // below dust limit

	if _, err := BuildAndSign([]Input{input}, []Output{output}); err == nil {
		t.Fatal("expected error for dust output")
	}
}

func TestBuildAndSignAllowsZeroValueOpReturn(t *testing.T) {
	priv, script := testKeyAndScript(t)
	opReturn, err := OpReturnScript([]byte("memo"))
	if err != nil {
		t.Fatalf("OpReturnScript: %v", err)
	}

	input := Input{TxID: strings.Repeat("11", 32), Vout: 0, Value: 10_000, PKScript: script, PrivKey: priv}
	outputs := []Output{
		{Value: 0, Script: opReturn},
		{Value: 9_000, Script: script},
	}

	built, err := BuildAndSign([]Input{input}, outputs)
	if err != nil {
		t.Fatalf("BuildAndSign: %v", err)
	}
	if built.TxHex == "" {
		t.Fatal("expected non-empty hex")
	}
}

func TestBuildAndSignRejectsNoInputs(t *testing.T) {
	_, script := testKeyAndScript(t)
	if _, err := BuildAndSign(nil, []Output{{Value: 1000, Script: script}}); err == nil {
		t.Fatal("expected error for no inputs")
	}
}
