package token

import (
	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// BuildALPSend builds an eMPP OP_RETURN script wrapping a single ALP SEND
// section for tokenID.
func BuildALPSend(tokenID [32]byte, outputAtoms []uint64) ([]byte, error) {
	section, err := alpSection(tokenID, config.ALPSendType, outputAtoms)
	if err != nil {
		return nil, err
	}
	return wrapEMPP(section)
}

// BuildALPBurn builds an eMPP OP_RETURN script wrapping a single ALP BURN
// section for tokenID.
func BuildALPBurn(tokenID [32]byte, burnAtoms uint64) ([]byte, error) {
	section, err := alpSection(tokenID, config.ALPBurnType, []uint64{burnAtoms})
	if err != nil {
		return nil, err
	}
	return wrapEMPP(section)
}

// alpSection encodes one ALP section: LOKAD id "SLP2" + section type +
// 32-byte token_id + per-output 6-byte little-endian atom counts,
// concatenated as a single push.
func alpSection(tokenID [32]byte, sectionType byte, amounts []uint64) ([]byte, error) {
	if len(amounts) == 0 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "alp encode", nil)
	}

	section := make([]byte, 0, len(config.ALPLokadID)+1+32+6*len(amounts))
	section = append(section, []byte(config.ALPLokadID)...)
	section = append(section, sectionType)
	section = append(section, tokenID[:]...)
	for _, a := range amounts {
		le, err := le6(a)
		if err != nil {
			return nil, err
		}
		section = append(section, le...)
	}
	return section, nil
}

// le6 encodes v as a 6-byte little-endian integer, as required by the ALP
// wire format's atom fields.
func le6(v uint64) ([]byte, error) {
	if v >= 1<<48 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "alp amount exceeds 48 bits", nil)
	}
	b := make([]byte, 6)
	for i := 0; i < 6; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b, nil
}

// wrapEMPP wraps one or more ALP sections in an eMPP OP_RETURN container:
// OP_RETURN + the eMPP push prefix + one push per section.
func wrapEMPP(sections ...[]byte) ([]byte, error) {
	pushes := make([][]byte, 0, 1+len(sections))
	pushes = append(pushes, []byte{config.EMPPPushPrefix})
	pushes = append(pushes, sections...)
	return txbuilder.OpReturnScript(pushes...)
}
