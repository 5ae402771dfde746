package contact

import (
	"context"

	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/dto/respond"
	"flash_chat_server/internal/service/chat"
)

// contactService 联系人业务逻辑实现
type contactService struct {
	client *chat.Client
}

// NewContactService 构造函数
func NewContactService(client *chat.Client) *contactService {
	return &contactService{client: client}
}

// AddContact 添加联系人
func (s *contactService) AddContact(ctx context.Context, req request.AddContactRequest) (*respond.SessionRespond, error) {
	session, err := s.client.AddContact(ctx, req.Name, req.CreateBot)
	if err != nil {
		return nil, err
	}
	rsp := &respond.SessionRespond{
		SessionId: session.ID,
		IsSupport: session.IsSupport,
		Active:    true,
	}
	if u, ok := s.client.User(session.ParticipantID); ok {
		rsp.Participant = respond.FromUser(u)
	}
	return rsp, nil
}
