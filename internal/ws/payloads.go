package ws

// client → server
type Request struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"` // echoed back so the client can match replies
}

// server → client
type Response struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
