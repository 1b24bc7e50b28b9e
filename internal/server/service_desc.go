package server

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "quote.v1.QuoteAnalysis"

const (
	QuoteAnalysis_Analyze_FullMethodName          = "/" + serviceName + "/Analyze"
	QuoteAnalysis_AnalyzeDirectory_FullMethodName = "/" + serviceName + "/AnalyzeDirectory"
	QuoteAnalysis_Submit_FullMethodName           = "/" + serviceName + "/Submit"
	QuoteAnalysis_GetRun_FullMethodName           = "/" + serviceName + "/GetRun"
	QuoteAnalysis_ListRuns_FullMethodName         = "/" + serviceName + "/ListRuns"
)

// QuoteAnalysisServer is the server API for the quote.v1.QuoteAnalysis service.
type QuoteAnalysisServer interface {
	Analyze(context.Context, *AnalyzeRequest) (*AnalyzeResponse, error)
	AnalyzeDirectory(context.Context, *AnalyzeDirectoryRequest) (*AnalyzeDirectoryResponse, error)
	Submit(context.Context, *AnalyzeRequest) (*SubmitResponse, error)
	GetRun(context.Context, *GetRunRequest) (*GetRunResponse, error)
	ListRuns(context.Context, *ListRunsRequest) (*ListRunsResponse, error)
}

func RegisterQuoteAnalysisServer(s grpc.ServiceRegistrar, srv QuoteAnalysisServer) {
	s.RegisterService(&QuoteAnalysis_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(QuoteAnalysisServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QuoteAnalysisServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QuoteAnalysisServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// QuoteAnalysis_ServiceDesc is the grpc.ServiceDesc for the quote.v1.QuoteAnalysis service.
var QuoteAnalysis_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QuoteAnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: unaryHandler(QuoteAnalysis_Analyze_FullMethodName, QuoteAnalysisServer.Analyze)},
		{MethodName: "AnalyzeDirectory", Handler: unaryHandler(QuoteAnalysis_AnalyzeDirectory_FullMethodName, QuoteAnalysisServer.AnalyzeDirectory)},
		{MethodName: "Submit", Handler: unaryHandler(QuoteAnalysis_Submit_FullMethodName, QuoteAnalysisServer.Submit)},
		{MethodName: "GetRun", Handler: unaryHandler(QuoteAnalysis_GetRun_FullMethodName, QuoteAnalysisServer.GetRun)},
		{MethodName: "ListRuns", Handler: unaryHandler(QuoteAnalysis_ListRuns_FullMethodName, QuoteAnalysisServer.ListRuns)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quote/v1/quote_analysis.json",
}

// QuoteAnalysisClient is the client API for the quote.v1.QuoteAnalysis service.
type QuoteAnalysisClient struct {
	cc grpc.ClientConnInterface
}

func NewQuoteAnalysisClient(cc grpc.ClientConnInterface) *QuoteAnalysisClient {
	return &QuoteAnalysisClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuoteAnalysisClient) Analyze(ctx context.Context, in *AnalyzeRequest, opts ...grpc.CallOption) (*AnalyzeResponse, error) {
	return invoke[AnalyzeResponse](ctx, c.cc, QuoteAnalysis_Analyze_FullMethodName, in, opts)
}

func (c *QuoteAnalysisClient) AnalyzeDirectory(ctx context.Context, in *AnalyzeDirectoryRequest, opts ...grpc.CallOption) (*AnalyzeDirectoryResponse, error) {
	return invoke[AnalyzeDirectoryResponse](ctx, c.cc, QuoteAnalysis_AnalyzeDirectory_FullMethodName, in, opts)
}

func (c *QuoteAnalysisClient) Submit(ctx context.Context, in *AnalyzeRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	return invoke[SubmitResponse](ctx, c.cc, QuoteAnalysis_Submit_FullMethodName, in, opts)
}

func (c *QuoteAnalysisClient) GetRun(ctx context.Context, in *GetRunRequest, opts ...grpc.CallOption) (*GetRunResponse, error) {
	return invoke[GetRunResponse](ctx, c.cc, QuoteAnalysis_GetRun_FullMethodName, in, opts)
}

func (c *QuoteAnalysisClient) ListRuns(ctx context.Context, in *ListRunsRequest, opts ...grpc.CallOption) (*ListRunsResponse, error) {
	return invoke[ListRunsResponse](ctx, c.cc, QuoteAnalysis_ListRuns_FullMethodName, in, opts)
}
