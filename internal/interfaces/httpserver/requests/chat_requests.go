package requests

// HandshakeRequest carries the client-held lead token. An empty token is
// valid and simply means a brand new visitor.
type HandshakeRequest struct {
	LeadID string `json:"lead_id"`
}

// StartConversationRequest is the intake form payload plus the first message.
type StartConversationRequest struct {
	LeadID  string `json:"lead_id"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

// LeadMessageRequest is the public send path. The lead token proves the
// caller owns the conversation.
type LeadMessageRequest struct {
	LeadID  string `json:"lead_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// AgentMessageRequest is the agent send path; identity comes from the
// session token.
type AgentMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// BroadcastAuthRequest authorizes a socket to join a topic. Sent
// form-encoded by the realtime client library.
type BroadcastAuthRequest struct {
	SocketID string `form:"socket_id" json:"socket_id" binding:"required"`
	Channel  string `form:"channel_name" json:"channel_name" binding:"required"`
	UserID   string `form:"user_id" json:"user_id"`
}
