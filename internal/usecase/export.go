package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"lapakchat/internal/domain/entity"
	"lapakchat/pkg/errors"
)

const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

type exportDocument struct {
	Conversation *entity.Conversation `json:"conversation"`
	Messages     []*entity.Message    `json:"messages"`
	ExportedAt   time.Time            `json:"exported_at"`
	ExportedBy   string               `json:"exported_by"`
}

// Export renders the full conversation transcript. Former participants may
// export too, since the data is theirs.
func (uc *ConversationUseCase) Export(ctx context.Context, conversationID, callerID, format string) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatJSON
	}
	if format != ExportFormatJSON && format != ExportFormatCSV {
		return nil, errors.BadRequest("Export format must be json or csv", nil)
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, ok := conversation.ParticipantRole(callerID); !ok {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	messages, _, err := uc.conversationRepo.ListMessages(ctx, conversationID, 0, 0)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("conversation-%s.%s", conversationID, format)

	if format == ExportFormatCSV {
		body, err := exportCSV(messages)
		if err != nil {
			return nil, errors.Internal("Failed to render export", err)
		}
		return &ExportResult{Filename: filename, ContentType: "text/csv", Body: body}, nil
	}

	body, err := json.MarshalIndent(exportDocument{
		Conversation: conversation,
		Messages:     messages,
		ExportedAt:   time.Now().UTC(),
		ExportedBy:   callerID,
	}, "", "  ")
	if err != nil {
		return nil, errors.Internal("Failed to render export", err)
	}
	return &ExportResult{Filename: filename, ContentType: "application/json", Body: body}, nil
}

func exportCSV(messages []*entity.Message) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"message_id", "sender_id", "type", "content", "created_at", "is_deleted"}); err != nil {
		return nil, err
	}
	for _, m := range messages {
		record := []string{
			m.ID,
			m.SenderID,
			m.Type,
			m.Content,
			m.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(m.IsDeleted),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
