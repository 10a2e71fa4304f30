package broadcast

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"crm-server/internal/utils/platformerrors"
)

// SubscriberInfo identifies who is joining a topic. It is echoed to other
// subscribers on presence topics.
type SubscriberInfo struct {
	UserID   string            `json:"user_id"`
	UserInfo map[string]string `json:"user_info,omitempty"`
}

// Grant is the signed proof a client presents to the broadcast channel to
// join a private topic.
type Grant struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// Signer produces subscription grants. The signature covers the socket id
// and topic so a grant cannot be replayed for another connection or topic.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign authorizes the socket to subscribe to the topic. Authorization
// decisions happen before this call; Sign only attests them.
func (s *Signer) Sign(ctx context.Context, socketID, topic string, info *SubscriberInfo) (*Grant, error) {
	payload := socketID + ":" + topic

	grant := &Grant{}
	if info != nil {
		data, err := json.Marshal(info)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, "failed to encode subscriber info", err, "d6a9f2c5-8e1b-4d4a-9c7f-3b5e8d2a6c91")
		}
		grant.ChannelData = string(data)
		payload += ":" + grant.ChannelData
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	grant.Auth = hex.EncodeToString(mac.Sum(nil))
	return grant, nil
}
