package supplicant

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/wifierr"
)

// DefaultPath is the file the connect commands hand to wpa_supplicant.
const DefaultPath = "/tmp/wpa_supplicant.conf"

const networkTemplate = "network={\n    ssid=\"%s\"\n    psk=%s\n}\n"

type WriterConfig struct {
	// Path of the generated file, DefaultPath when empty.
	Path   string
	Logger Logger
}

// Writer renders the single network block the PSK connect commands read.
// Every write replaces the previous file.
type Writer struct {
	path string
	log  Logger
}

func NewWriter(config *WriterConfig) *Writer {
	writer := &Writer{
		path: config.Path,
	}

	if writer.path == "" {
		writer.path = DefaultPath
	}

	if config.Logger != nil {
		writer.log = config.Logger
	} else {
		writer.log = noopLogger{}
	}

	return writer
}

// Path returns the generated file's location.
func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Write(ssid string, psk string) error {
	if ssid == "" || len(ssid) > credentials.MaxSsidLength {
		w.log.Errorf("Invalid SSID of length %d", len(ssid))
		return errors.Errorf("%w: invalid SSID length %d", wifierr.ErrFault, len(ssid))
	}

	if strings.ContainsAny(ssid, "\"\r\n") {
		w.log.Errorf("Invalid character in SSID")
		return errors.Errorf("%w: SSID contains a quote or line break", wifierr.ErrFault)
	}

	if !validPsk(psk) {
		w.log.Errorf("Invalid pre-shared key of length %d", len(psk))
		return errors.Errorf("%w: pre-shared key must be printable without spaces or quotes", wifierr.ErrFault)
	}

	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		w.log.Errorf("Unable to create %v: %v", w.path, err)
		return errors.Errorf("%w: could not create %v: %v", wifierr.ErrFault, w.path, err)
	}

	data := []byte(fmt.Sprintf(networkTemplate, ssid, psk))

	n, err := file.Write(data)
	closeErr := file.Close()

	if err != nil || n != len(data) {
		w.log.Errorf("Unable to write %v: wrote %d of %d bytes: %v", w.path, n, len(data), err)
		return errors.Errorf("%w: could not write %v: %v", wifierr.ErrFault, w.path, err)
	}

	if closeErr != nil {
		w.log.Errorf("Unable to close %v: %v", w.path, closeErr)
		return errors.Errorf("%w: could not write %v: %v", wifierr.ErrFault, w.path, closeErr)
	}

	w.log.Infof("Wrote supplicant configuration to %v", w.path)

	return nil
}

// validPsk accepts keys that stay a single unquoted value in the file.
func validPsk(psk string) bool {
	if psk == "" || len(psk) > credentials.MaxPskLength {
		return false
	}

	for i := 0; i < len(psk); i++ {
		if c := psk[i]; c <= ' ' || c == '"' || c >= 0x7f {
			return false
		}
	}

	return true
}
