package transfer

// ErrKind tags the terminal condition of a completed transfer. A
// caller-side facade translates it into its own error shape.
type ErrKind string

const (
	KindNone          ErrKind = ""
	KindTransportInit ErrKind = "transport_init"
	KindTimeout       ErrKind = "timeout"
	KindTLS           ErrKind = "tls"
	KindDNS           ErrKind = "dns"
	KindNetwork       ErrKind = "network"
	KindProtocol      ErrKind = "protocol"
	KindHTTPStatus    ErrKind = "http_status"
)
