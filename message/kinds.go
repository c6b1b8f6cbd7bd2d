package message

// Backend-native kind identifiers as they appear on the wire.
const (
	NativeInitialState       = "initial_state"
	NativeWorkerRegistered   = "worker:registered"
	NativeWorkerDeregistered = "worker:deregistered"
	NativeWorkerDisconnected = "worker:disconnected"
	NativeHealthUpdate       = "health:update"
	NativeMetricsUpdate      = "metrics:update"
	NativeResourcesUpdate    = "resources:update"
	NativeCommandResponse    = "command:response"
)

// Public kinds form the stable vocabulary listeners subscribe to.
// Backend-native identifiers are remapped to these at the normalizer
// boundary so backend renames never ripple into consumers.
const (
	KindInitialData        = "initial_data"
	KindWorkerRegistered   = "worker_registered"
	KindWorkerDeregistered = "worker_deregistered"
	KindWorkerStatusChange = "worker_status_change"
	KindWorkerStatusUpdate = "worker_status_update"
	KindMetricsUpdate      = "metrics_update"
	KindResourcesUpdate    = "resources_update"
	KindCommandResponse    = "command_response"
)

// Synthetic kinds are generated locally for connection lifecycle events.
// They are never sent over the wire.
const (
	KindConnectionOpen    = "connection_open"
	KindConnectionClosed  = "connection_closed"
	KindConnectionError   = "connection_error"
	KindMaxRetriesReached = "max_retries_reached"
)

// kindMapping remaps backend-native kinds to the public vocabulary.
// Read-only after package initialization.
var kindMapping = map[string]string{
	NativeInitialState:       KindInitialData,
	NativeWorkerRegistered:   KindWorkerRegistered,
	NativeWorkerDeregistered: KindWorkerDeregistered,
	NativeWorkerDisconnected: KindWorkerStatusChange,
	NativeHealthUpdate:       KindWorkerStatusUpdate,
	NativeMetricsUpdate:      KindMetricsUpdate,
	NativeResourcesUpdate:    KindResourcesUpdate,
	NativeCommandResponse:    KindCommandResponse,
}

// MapKind translates a backend-native kind to its public equivalent.
// Kinds absent from the mapping pass through verbatim.
func MapKind(native string) string {
	if public, ok := kindMapping[native]; ok {
		return public
	}
	return native
}

// IsSynthetic reports whether the kind is a locally generated connection
// lifecycle event rather than a wire message.
func IsSynthetic(kind string) bool {
	switch kind {
	case KindConnectionOpen, KindConnectionClosed, KindConnectionError, KindMaxRetriesReached:
		return true
	}
	return false
}
