package grpcx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/store"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type FileResolver interface {
	URL(key string) string
}

type Server struct {
	svc   *service.ChatService
	files FileResolver
}

var _ MessageServiceServer = (*Server)(nil)

func NewServer(svc *service.ChatService, files FileResolver) *Server {
	return &Server{svc: svc, files: files}
}

// Register регистрирует MessageService и health-сервис.
func Register(gs *grpc.Server, s MessageServiceServer) *health.Server {
	gs.RegisterService(&MessageServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return hs
}

func (s *Server) CreateMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	replyTo, err := optInt(in, "reply_to")
	if err != nil {
		return nil, err
	}
	m, err := s.svc.CreateMessage(ctx, service.CreateMessageInput{
		ChatID:  str(in, "chat"),
		Sender:  str(in, "sender"),
		Content: str(in, "content"),
		ReplyTo: replyTo,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toStruct(map[string]any{
		"id":              float64(m.ID),
		"chat":            m.ChatID,
		"sender":          m.Sender,
		"content":         m.Content,
		"file_attachment": s.fileValue(m.FileAttachment),
		"reply_to":        intValue(m.ReplyTo),
		"timestamp":       m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) CreateGroupMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	replyTo, err := optInt(in, "reply_to")
	if err != nil {
		return nil, err
	}
	m, err := s.svc.CreateGroupMessage(ctx, service.CreateGroupMessageInput{
		GroupID: str(in, "group"),
		Sender:  str(in, "sender"),
		Content: str(in, "content"),
		ReplyTo: replyTo,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toStruct(map[string]any{
		"id":              float64(m.ID),
		"group":           m.GroupID,
		"sender":          m.Sender,
		"content":         m.Content,
		"file_attachment": s.fileValue(m.FileAttachment),
		"reply_to":        intValue(m.ReplyTo),
		"timestamp":       m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) CreateCommonMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.svc.CreateCommonMessage(ctx, service.CreateCommonMessageInput{
		Sender:  str(in, "sender"),
		Content: str(in, "content"),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toStruct(map[string]any{
		"id":        float64(m.ID),
		"sender":    m.Sender,
		"content":   m.Content,
		"timestamp": m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// -------- helpers --------

func mapErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidReply),
		errors.Is(err, store.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case store.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrAlreadyMember):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func str(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func optInt(in *structpb.Struct, key string) (*int64, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) || k.NumberValue <= 0 {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s must be a positive integer", key))
		}
		n := int64(k.NumberValue)
		return &n, nil
	default:
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s must be a number", key))
	}
}

func intValue(v *int64) any {
	if v == nil {
		return nil
	}
	return float64(*v)
}

func (s *Server) fileValue(key *string) any {
	if key == nil {
		return nil
	}
	if s.files == nil {
		return *key
	}
	return s.files.URL(*key)
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}
