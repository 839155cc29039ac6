package supplicant

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/wifierr"
	"golang.org/x/crypto/pbkdf2"
)

// check NativeDeriver compliance to its interface during compile time
var _ Deriver = (*NativeDeriver)(nil)

// IEEE 802.11i passphrase to PSK mapping.
const (
	pskIterations = 4096
	pskKeyLength  = 32
)

// NativeDeriver computes the key in process, for hosts where the script
// has no wpa_passphrase.
type NativeDeriver struct{}

func NewNativeDeriver() *NativeDeriver {
	return &NativeDeriver{}
}

func (d *NativeDeriver) DerivePsk(ctx context.Context, ssid string, passphrase string) (string, error) {
	if ssid == "" || len(ssid) > credentials.MaxSsidLength {
		return "", errors.Errorf("%w: invalid SSID length %d", wifierr.ErrFault, len(ssid))
	}

	if len(passphrase) < credentials.MinPassphraseLength || len(passphrase) > credentials.MaxPassphraseLength {
		return "", errors.Errorf("%w: invalid passphrase length %d", wifierr.ErrFault, len(passphrase))
	}

	if err := ctx.Err(); err != nil {
		return "", errors.Errorf("%w: %v", wifierr.ErrFault, err)
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(ssid), pskIterations, pskKeyLength, sha1.New)

	return hex.EncodeToString(key), nil
}
