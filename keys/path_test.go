package keys

import "testing"

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    []PathSegment
		wantErr bool
	}{
		{
			name: "default xec path",
			path: DefaultPath,
			want: []PathSegment{
				{Index: 44, Hardened: true},
				{Index: 899, Hardened: true},
				{Index: 0, Hardened: true},
				{Index: 0},
				{Index: 0},
			},
		},
		{
			name:    "missing m prefix",
			path:    "44'/899'/0'/0/0",
			wantErr: true,
		},
		{
			name:    "bad segment",
			path:    "m/44'/abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("segment count = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeriveFromPath(t *testing.T) {
	seed, err := MnemonicToSeed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")
	if err != nil {
		t.Fatalf("MnemonicToSeed: %v", err)
	}
	master, err := DeriveMasterKey(seed, networkChainParams(Mainnet))
	if err != nil {
		t.Fatalf("DeriveMasterKey: %v", err)
	}

	child, err := DeriveFromPath(master, DefaultPath)
	if err != nil {
		t.Fatalf("DeriveFromPath: %v", err)
	}

	child2, err := DeriveFromPath(master, DefaultPath)
	if err != nil {
		t.Fatalf("DeriveFromPath: %v", err)
	}
	priv1, err := PrivateKeyFromExtended(child)
	if err != nil {
		t.Fatalf("PrivateKeyFromExtended: %v", err)
	}
	priv2, err := PrivateKeyFromExtended(child2)
	if err != nil {
		t.Fatalf("PrivateKeyFromExtended: %v", err)
	}
	if string(priv1.Serialize()) != string(priv2.Serialize()) {
		t.Fatal("derivation is not deterministic")
	}

	otherPath := "m/44'/899'/0'/0/1"
	childOther, err := DeriveFromPath(master, otherPath)
	if err != nil {
		t.Fatalf("DeriveFromPath other: %v", err)
	}
	privOther, err := PrivateKeyFromExtended(childOther)
	if err != nil {
		t.Fatalf("PrivateKeyFromExtended other: %v", err)
	}
	if string(privOther.Serialize()) == string(priv1.Serialize()) {
		t.Fatal("different indices derived identical keys")
	}

	if _, err := DeriveFromPath(master, "m/not-a-number"); err == nil {
		t.Fatal("expected error for malformed path, got nil")
	}
}
