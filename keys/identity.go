package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// Identity is the spending identity derived once per wallet instance: a
// private key, its public counterpart, and the XEC address that key
// controls. Identity is not mutated after construction, except by Zero,
// which overwrites its secret material in place.
type Identity struct {
	Mnemonic   string // cleartext mnemonic, empty when imported from WIF/raw key
	Path       string // derivation path used, empty when imported directly
	PrivateKey [32]byte
	PublicKey  [33]byte // compressed secp256k1 public key
	Hash160    []byte   // 20-byte HASH160(PublicKey)
	Address    string   // CashAddr P2PKH address, HRP "ecash"
	Network    Network
}

// NewIdentityFromMnemonic derives a spending identity from a BIP-39
// mnemonic at the given derivation path (DefaultPath if empty).
func NewIdentityFromMnemonic(mnemonic, passphrase, path string, net Network) (*Identity, error) {
	if path == "" {
		path = DefaultPath
	}

	seed, err := MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}

	master, err := DeriveMasterKey(seed, networkChainParams(net))
	if err != nil {
		return nil, err
	}

	child, err := DeriveFromPath(master, path)
	if err != nil {
		return nil, err
	}

	priv, err := PrivateKeyFromExtended(child)
	if err != nil {
		return nil, err
	}

	id, err := newIdentityFromPrivKey(priv, net)
	if err != nil {
		return nil, err
	}
	id.Mnemonic = mnemonic
	id.Path = path
	return id, nil
}

// NewIdentityFromWIF imports a spending identity from a WIF-encoded key.
func NewIdentityFromWIF(wif string) (*Identity, error) {
	raw, compressed, net, err := DecodeWIF(wif)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return nil, fmt.Errorf("new identity from WIF: %w: only compressed keys are supported", walleterrors.ErrInvalidInput)
	}

	priv, _ := btcec.PrivKeyFromBytes(raw)
	return newIdentityFromPrivKey(priv, net)
}

// NewIdentityFromRawKey imports a spending identity from a raw 32-byte
// private key (hex-decoded by the caller).
func NewIdentityFromRawKey(raw []byte, net Network) (*Identity, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("new identity from raw key: %w: key must be 32 bytes, got %d", walleterrors.ErrInvalidInput, len(raw))
	}
	if !isValidScalar(raw) {
		return nil, fmt.Errorf("new identity from raw key: %w: key out of range", walleterrors.ErrInvalidInput)
	}

	priv, _ := btcec.PrivKeyFromBytes(raw)
	return newIdentityFromPrivKey(priv, net)
}

func newIdentityFromPrivKey(priv *btcec.PrivateKey, net Network) (*Identity, error) {
	pub := priv.PubKey()
	hash160 := PubKeyHash(pub)
	addr, err := AddressFromHash160(hash160)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		Hash160: hash160,
		Address: addr,
		Network: net,
	}
	copy(id.PrivateKey[:], priv.Serialize())
	copy(id.PublicKey[:], pub.SerializeCompressed())

	priv.Zero()
	return id, nil
}

// WIF re-encodes the identity's private key in Wallet Import Format,
// compressed, for the identity's network.
func (id *Identity) WIF() (string, error) {
	return EncodeWIF(id.PrivateKey[:], true, id.Network)
}

// ECPrivKey returns a live *btcec.PrivateKey for signing. Callers should
// call Zero() on the returned key once signing is complete.
func (id *Identity) ECPrivKey() *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(id.PrivateKey[:])
	return priv
}

// Zero overwrites the private key material in place. Callers that hold an
// Identity for the lifetime of a process should call this on shutdown.
func (id *Identity) Zero() {
	for i := range id.PrivateKey {
		id.PrivateKey[i] = 0
	}
	id.Mnemonic = ""
}

func networkChainParams(net Network) *chaincfg.Params {
	if net == Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}
