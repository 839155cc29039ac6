package credentials

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifierr"
)

// Protocol is the security protocol used to join a network.
type Protocol int

const (
	SecurityNone Protocol = iota
	SecurityWep
	SecurityWpaPskPersonal
	SecurityWpa2PskPersonal
	SecurityWpaEapPeap0Enterprise
	SecurityWpa2EapPeap0Enterprise
)

var protocolNames = map[Protocol]string{
	SecurityNone:                   "none",
	SecurityWep:                    "wep",
	SecurityWpaPskPersonal:         "wpa-psk",
	SecurityWpa2PskPersonal:        "wpa2-psk",
	SecurityWpaEapPeap0Enterprise:  "wpa-eap-peap0",
	SecurityWpa2EapPeap0Enterprise: "wpa2-eap-peap0",
}

func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}

	return "INVALID PROTOCOL"
}

// Valid reports whether p is one of the defined protocols.
func (p Protocol) Valid() bool {
	_, ok := protocolNames[p]
	return ok
}

// IsPersonal reports whether p authenticates with a passphrase or PSK.
func (p Protocol) IsPersonal() bool {
	return p == SecurityWpaPskPersonal || p == SecurityWpa2PskPersonal
}

// IsEnterprise reports whether p authenticates with a username and password.
func (p Protocol) IsEnterprise() bool {
	return p == SecurityWpaEapPeap0Enterprise || p == SecurityWpa2EapPeap0Enterprise
}

// ParseProtocol reads the names String produces.
func ParseProtocol(name string) (Protocol, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for protocol, protocolName := range protocolNames {
		if protocolName == name {
			return protocol, nil
		}
	}

	return 0, errors.Errorf("%w: unknown security protocol %q", wifierr.ErrInvalidArgument, name)
}

// ProtocolNames lists valid protocol names in enumeration order.
func ProtocolNames() []string {
	names := make([]string, 0, len(protocolNames))
	for p := SecurityNone; p <= SecurityWpa2EapPeap0Enterprise; p++ {
		names = append(names, protocolNames[p])
	}

	return names
}
