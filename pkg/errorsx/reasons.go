package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonTransportConnect ReasonCode = "transport_connect"
	ReasonTransportSend    ReasonCode = "transport_send"
	ReasonTransportClosed  ReasonCode = "transport_closed"

	ReasonDeviceOpen       ReasonCode = "device_open"
	ReasonDevicePermission ReasonCode = "device_permission"
	ReasonDeviceStart      ReasonCode = "device_start"

	ReasonDecodePayload ReasonCode = "decode_payload"
	ReasonServerError   ReasonCode = "server_error"
	ReasonSessionState  ReasonCode = "session_state"
)
