package supplicant

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/wifierr"
)

// Deriver turns a WPA passphrase into the pre-shared key for ssid.
type Deriver interface {
	DerivePsk(ctx context.Context, ssid string, passphrase string) (string, error)
}

// check ScriptDeriver compliance to its interface during compile time
var _ Deriver = (*ScriptDeriver)(nil)

const pskPrefix = "\tpsk="

type ScriptDeriverConfig struct {
	Runner shell.Runner
	Logger Logger
}

// ScriptDeriver asks the adaptor script, which wraps wpa_passphrase, for
// the key.
type ScriptDeriver struct {
	runner shell.Runner
	log    Logger
}

func NewScriptDeriver(config *ScriptDeriverConfig) *ScriptDeriver {
	deriver := &ScriptDeriver{
		runner: config.Runner,
	}

	if config.Logger != nil {
		deriver.log = config.Logger
	} else {
		deriver.log = noopLogger{}
	}

	return deriver
}

// DerivePsk reads the script output until a psk line. Keys longer than
// credentials.MaxPskLength are skipped.
func (d *ScriptDeriver) DerivePsk(ctx context.Context, ssid string, passphrase string) (string, error) {
	stream, err := d.runner.Stream(ctx, shell.ConnectWpaPassphrase, ssid, passphrase)
	if err != nil {
		d.log.Errorf("Could not derive pre-shared key: %v", err)
		return "", errors.Errorf("%w: could not run passphrase helper: %v", wifierr.ErrFault, err)
	}

	defer func() {
		if err := stream.Close(); err != nil {
			d.log.Warnf("Passphrase helper did not finish cleanly: %v", err)
		}
	}()

	reader := bufio.NewReader(stream)
	tooLong := false

	for {
		line, err := reader.ReadString('\n')
		if strings.HasPrefix(line, pskPrefix) {
			psk := strings.TrimRight(line[len(pskPrefix):], "\r\n")

			if len(psk) <= credentials.MaxPskLength {
				d.log.Debugf("Derived pre-shared key of length %d", len(psk))
				return psk, nil
			}

			d.log.Warnf("Derived pre-shared key is longer than %d", credentials.MaxPskLength)
			tooLong = true
		}

		if err != nil {
			if err != io.EOF {
				d.log.Warnf("Could not read passphrase helper output: %v", err)
			}

			break
		}
	}

	if tooLong {
		return "", errors.Errorf("%w: derived pre-shared key is longer than %d", wifierr.ErrFault, credentials.MaxPskLength)
	}

	return "", errors.Errorf("%w: passphrase helper printed no pre-shared key", wifierr.ErrFault)
}
