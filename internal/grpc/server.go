// Package grpc exposes read access to the catalog and progress updates over
// gRPC, using JSON as the wire codec.
package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"streamhub/internal/apperr"
	"streamhub/internal/auth"
	"streamhub/internal/catalog"
	"streamhub/internal/history"
	"streamhub/internal/logger"
)

type Server struct {
	query   *catalog.QueryService
	tracker *history.Tracker
	users   *auth.Signer
}

// NewServer wires the service. users verifies the bearer token that
// UpdateProgress requires in the "authorization" metadata key.
func NewServer(query *catalog.QueryService, tracker *history.Tracker, users *auth.Signer) *Server {
	return &Server{query: query, tracker: tracker, users: users}
}

func (s *Server) GetShow(ctx context.Context, req *GetShowRequest) (*catalog.ShowView, error) {
	show, err := s.query.GetShow(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return show, nil
}

func (s *Server) SearchShows(ctx context.Context, req *SearchShowsRequest) (*SearchShowsResponse, error) {
	shows, err := s.query.Search(ctx, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SearchShowsResponse{Shows: shows}, nil
}

func (s *Server) ListEpisodes(ctx context.Context, req *ListEpisodesRequest) (*ListEpisodesResponse, error) {
	eps, err := s.query.ListEpisodes(ctx, req.ShowID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListEpisodesResponse{Episodes: eps}, nil
}

func (s *Server) UpdateProgress(ctx context.Context, req *UpdateProgressRequest) (*UpdateProgressResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.tracker.UpdateProgress(ctx, p.ID, req.EpisodeID, req.Progress); err != nil {
		return nil, toStatus(err)
	}
	return &UpdateProgressResponse{Message: "Progress saved."}, nil
}

func (s *Server) principal(ctx context.Context) (auth.Principal, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return auth.Principal{}, apperr.New(apperr.Unauthenticated, "no token provided, authorization denied")
	}
	tok, ok := auth.ParseBearer(vals[0])
	if !ok {
		return auth.Principal{}, apperr.New(apperr.Unauthenticated, "no token provided, authorization denied")
	}
	return s.users.Verify(tok)
}

func toStatus(err error) error {
	var code codes.Code
	switch apperr.KindOf(err) {
	case apperr.Validation:
		code = codes.InvalidArgument
	case apperr.Conflict:
		code = codes.AlreadyExists
	case apperr.InvalidCredentials, apperr.Unauthenticated, apperr.InvalidToken, apperr.Expired:
		code = codes.Unauthenticated
	case apperr.Forbidden:
		code = codes.PermissionDenied
	case apperr.NotFound:
		code = codes.NotFound
	default:
		logger.Error("grpc:", err)
		code = codes.Internal
	}
	return status.Error(code, apperr.Message(err))
}
