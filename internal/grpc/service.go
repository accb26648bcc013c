package grpc

import (
	"context"

	"google.golang.org/grpc"

	"streamhub/internal/catalog"
	"streamhub/pkg/models"
)

const ServiceName = "streamhub.CatalogService"

type GetShowRequest struct {
	ID string `json:"id"`
}

type SearchShowsRequest struct {
	Query string `json:"query"`
}

type SearchShowsResponse struct {
	Shows []catalog.ShowView `json:"shows"`
}

type ListEpisodesRequest struct {
	ShowID string `json:"show_id"`
}

type ListEpisodesResponse struct {
	Episodes []models.Episode `json:"episodes"`
}

type UpdateProgressRequest struct {
	EpisodeID string   `json:"episode_id"`
	Progress  *float64 `json:"progress"`
}

type UpdateProgressResponse struct {
	Message string `json:"message"`
}

// CatalogServiceServer is the server API for streamhub.CatalogService.
type CatalogServiceServer interface {
	GetShow(context.Context, *GetShowRequest) (*catalog.ShowView, error)
	SearchShows(context.Context, *SearchShowsRequest) (*SearchShowsResponse, error)
	ListEpisodes(context.Context, *ListEpisodesRequest) (*ListEpisodesResponse, error)
	UpdateProgress(context.Context, *UpdateProgressRequest) (*UpdateProgressResponse, error)
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a grpc.MethodHandler for one request/response pair.
func unary[Req any, Resp any](method string, call func(CatalogServiceServer, context.Context, *Req) (Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetShow", Handler: unary("GetShow", CatalogServiceServer.GetShow)},
		{MethodName: "SearchShows", Handler: unary("SearchShows", CatalogServiceServer.SearchShows)},
		{MethodName: "ListEpisodes", Handler: unary("ListEpisodes", CatalogServiceServer.ListEpisodes)},
		{MethodName: "UpdateProgress", Handler: unary("UpdateProgress", CatalogServiceServer.UpdateProgress)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "streamhub/catalog",
}

// CatalogClient calls streamhub.CatalogService with the JSON codec.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *CatalogClient) GetShow(ctx context.Context, in *GetShowRequest, opts ...grpc.CallOption) (*catalog.ShowView, error) {
	out := new(catalog.ShowView)
	if err := c.invoke(ctx, "GetShow", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) SearchShows(ctx context.Context, in *SearchShowsRequest, opts ...grpc.CallOption) (*SearchShowsResponse, error) {
	out := new(SearchShowsResponse)
	if err := c.invoke(ctx, "SearchShows", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ListEpisodes(ctx context.Context, in *ListEpisodesRequest, opts ...grpc.CallOption) (*ListEpisodesResponse, error) {
	out := new(ListEpisodesResponse)
	if err := c.invoke(ctx, "ListEpisodes", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) UpdateProgress(ctx context.Context, in *UpdateProgressRequest, opts ...grpc.CallOption) (*UpdateProgressResponse, error) {
	out := new(UpdateProgressResponse)
	if err := c.invoke(ctx, "UpdateProgress", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
