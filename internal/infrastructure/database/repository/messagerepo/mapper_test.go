package messagerepo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"crm-server/internal/infrastructure/database/entities"
)

// Metadata columns can be written by other tools, so the mapping must not
// lose values that are not strings.
func TestFromEntityKeepsNonStringMetadata(t *testing.T) {
	entity := &entities.Message{
		ID:             "msg_1",
		ConversationID: "conv_1",
		Content:        "hola",
		SenderType:     "LEAD",
		CreatedAt:      time.Now(),
		Metadata: datatypes.JSONMap{
			"source":      "widget",
			"attempt":     float64(2),
			"resent":      true,
			"coordinates": map[string]any{"lat": -34.6, "lng": -58.4},
		},
	}

	msg := fromEntity(entity)

	require.Len(t, msg.Metadata, 4)
	assert.Equal(t, "widget", msg.Metadata["source"])
	assert.Equal(t, float64(2), msg.Metadata["attempt"])
	assert.Equal(t, true, msg.Metadata["resent"])
	assert.Equal(t, map[string]any{"lat": -34.6, "lng": -58.4}, msg.Metadata["coordinates"])
}

func TestMetadataRoundTrip(t *testing.T) {
	original := fromEntity(&entities.Message{
		ID:         "msg_1",
		SenderType: "AGENT",
		Metadata:   datatypes.JSONMap{"source": "dashboard", "attempt": float64(1)},
	})

	entity := toEntity(original)
	back := fromEntity(entity)

	assert.Equal(t, original.Metadata, back.Metadata)
}
