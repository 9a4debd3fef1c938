package ws

const (
	// client - server
	MsgStatus = "status"
	MsgStart  = "start"
	MsgClaim  = "claim"
	MsgPing   = "ping"

	// server - client
	MsgReady  = "ready"
	MsgPong   = "pong"
	MsgUpdate = "update" // user changed through another channel
	MsgError  = "error"
)
