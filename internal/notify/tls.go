package notify

// TLSMode is how the mail connection is encrypted.
type TLSMode int

const (
	// TLSStartTLS connects in the clear and upgrades before authenticating. The upgrade is mandatory.
	TLSStartTLS TLSMode = iota
	// TLSImplicit encrypts from the first byte.
	TLSImplicit
	// TLSNone never encrypts. Only selected with an explicit opt-out.
	TLSNone
)

// ImplicitTLSPort is the submission port that expects TLS on connect.
const ImplicitTLSPort = 465

func (m TLSMode) String() string {
	switch m {
	case TLSImplicit:
		return "implicit"
	case TLSNone:
		return "none"
	default:
		return "starttls"
	}
}

// TLSModeFor picks the connection mode. Port 465 without the STARTTLS flag
// means implicit TLS. Everything else upgrades with STARTTLS, unless the flag
// is off and allowInsecure explicitly permits a clear text session.
func TLSModeFor(port int, useTLS, allowInsecure bool) TLSMode {
	switch {
	case port == ImplicitTLSPort && !useTLS:
		return TLSImplicit
	case useTLS:
		return TLSStartTLS
	case allowInsecure:
		return TLSNone
	default:
		return TLSStartTLS
	}
}
