package shell

// Command vocabulary understood by the platform adaptor script. The script is
// invoked as `<script> <interface> <command> [args...]`.
const (
	HwStart    = "WIFI_START"
	HwStop     = "WIFI_STOP"
	WlanUp     = "WIFI_WLAN_UP"
	SetEvent   = "WIFI_SET_EVENT"
	StartScan  = "WIFICLIENT_START_SCAN"
	Disconnect = "WIFICLIENT_DISCONNECT"

	ConnectSecurityNone            = "WIFICLIENT_CONNECT_SECURITY_NONE"
	ConnectSecurityWep             = "WIFICLIENT_CONNECT_SECURITY_WEP"
	ConnectSecurityWpaPskPersonal  = "WIFICLIENT_CONNECT_SECURITY_WPA_PSK_PERSONAL"
	ConnectSecurityWpa2PskPersonal = "WIFICLIENT_CONNECT_SECURITY_WPA2_PSK_PERSONAL"
	ConnectSecurityWpaEapPeap0     = "WIFICLIENT_CONNECT_SECURITY_WPA_EAP_PEAP0_ENTERPRISE"
	ConnectSecurityWpa2EapPeap0    = "WIFICLIENT_CONNECT_SECURITY_WPA2_EAP_PEAP0_ENTERPRISE"
	ConnectWpaPassphrase           = "WIFICLIENT_CONNECT_WPA_PASSPHRASE"
)

// DefaultScriptPath is where the wifi service installs its script.
const DefaultScriptPath = "/legato/systems/current/apps/wifiService/read-only/pa_wifi.sh"

// DefaultInterface is the wireless interface handed to every command.
const DefaultInterface = "wlan0"

// exitReason describes the exit statuses the script documents.
func exitReason(code int) string {
	switch code {
	case 1:
		return "unknown option"
	case 127:
		return "kernel modules not loaded or interface not seen"
	default:
		return "command failed"
	}
}
