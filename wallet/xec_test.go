package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

// newMockChronikForSend serves a single pure-XEC UTXO owned by w and
// accepts broadcastTx.
func newMockChronikForSend(t *testing.T, w *Wallet, utxoValue int64) *httptest.Server {
	t.Helper()
	script, err := txbuilder.P2PKHScript(w.identity.Hash160)
	if err != nil {
		t.Fatalf("P2PKHScript: %v", err)
	}
	scriptHex := hex.EncodeToString(script)

	mux := http.NewServeMux()
	mux.HandleFunc("/broadcastTx", func(resp http.ResponseWriter, r *http.Request) {
		fmt.Fprint(resp, `{"txid":"feedface00"}`)
	})
	mux.HandleFunc("/", func(resp http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/utxos") {
			fmt.Fprintf(resp, `{"utxos":[{"outpoint":{"txid":"%s","outIdx":0},"blockHeight":100,"value":"%d","script":"%s"}]}`,
				strings.Repeat("33", 32), utxoValue, scriptHex)
			return
		}
		resp.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func testRecipient(t *testing.T) string {
	t.Helper()
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = 0x55
	}
	addr, err := xeccrypto.EncodeCashAddr(hash, xeccrypto.CashAddrTypeP2PKH)
	if err != nil {
		t.Fatalf("EncodeCashAddr: %v", err)
	}
	return addr
}

// setupSendTest derives a wallet from a fixed raw key, stands up a mock
// chronik endpoint holding one pure-XEC UTXO of utxoValue sats, and
// initializes the wallet against it. The caller must close the returned
// server.
func setupSendTest(t *testing.T, seedByte byte, utxoValue int64) (*Wallet, *httptest.Server) {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seedByte
	}
	raw[0] |= 1
	secret := hex.EncodeToString(raw)

	probe, err := New(secret)
	if err != nil {
		t.Fatalf("New (probe): %v", err)
	}
	srv := newMockChronikForSend(t, probe, utxoValue)

	w, err := New(secret, WithEndpoints([]string{srv.URL}), WithCacheTTL(time.Minute))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Initialize(context.Background()); err != nil {
		srv.Close()
		t.Fatalf("Initialize: %v", err)
	}
	return w, srv
}

func TestSendXECProducesBroadcastTx(t *testing.T) {
	w, srv := setupSendTest(t, 0x61, 100_000)
	defer srv.Close()

	recipient := testRecipient(t)
	built, txid, err := w.SendXEC(context.Background(), []Recipient{{Address: recipient, Sats: 10_000}}, 1.2)
	if err != nil {
		t.Fatalf("SendXEC: %v", err)
	}
	if txid != "feedface00" {
		t.Fatalf("txid = %q, want feedface00", txid)
	}
	if built.TxHex == "" {
		t.Fatal("expected non-empty tx hex")
	}
}

func TestSendXECRejectsDustRecipient(t *testing.T) {
	w, srv := setupSendTest(t, 0x62, 100_000)
	defer srv.Close()

	recipient := testRecipient(t)
	_, _, err := w.SendXEC(context.Background(), []Recipient{{Address: recipient, Sats: 1}}, 1.2)
	if err == nil {
		t.Fatal("expected dust-output error")
	}
}

func TestSendAllXECSweepsEverything(t *testing.T) {
	w, srv := setupSendTest(t, 0x63, 50_000)
	defer srv.Close()

	recipient := testRecipient(t)
	built, txid, err := w.SendAllXEC(context.Background(), recipient, 1.2)
	if err != nil {
		t.Fatalf("SendAllXEC: %v", err)
	}
	if txid == "" || built.TxHex == "" {
		t.Fatal("expected a broadcast sweep transaction")
	}
}

func TestSendOpReturnEmitsDataOutputFirst(t *testing.T) {
	w, srv := setupSendTest(t, 0x64, 100_000)
	defer srv.Close()

	built, txid, err := w.SendOpReturn(context.Background(), []byte("hello"), "", nil, 1.2)
	if err != nil {
		t.Fatalf("SendOpReturn: %v", err)
	}
	if txid == "" || built.TxHex == "" {
		t.Fatal("expected a broadcast op_return transaction")
	}

	// An empty prefix selects the default memo prefix 6d02.
	wantData, err := txbuilder.OpReturnScript([]byte{0x6d, 0x02}, []byte("hello"))
	if err != nil {
		t.Fatalf("OpReturnScript: %v", err)
	}
	raw, err := hex.DecodeString(built.TxHex)
	if err != nil {
		t.Fatalf("decode tx hex: %v", err)
	}
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		t.Fatalf("deserialize tx: %v", err)
	}
	if len(tx.TxOut) == 0 || !bytes.Equal(tx.TxOut[0].PkScript, wantData) {
		t.Fatal("first output is not the OP_RETURN data output")
	}
}

func TestSendOpReturnRejectsOversizeMessage(t *testing.T) {
	w, srv := setupSendTest(t, 0x65, 100_000)
	defer srv.Close()

	oversized := make([]byte, 300)
	_, _, err := w.SendOpReturn(context.Background(), oversized, "", nil, 1.2)
	if err == nil {
		t.Fatal("expected oversize OP_RETURN error")
	}
}
