// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package lexrpc exposes the lexer over gRPC. Requests and responses use the
// protobuf well-known types so no generated code is needed.
package lexrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "pascallint.v1.Lexer"

	tokenizeMethod = "/" + ServiceName + "/Tokenize"
	keywordsMethod = "/" + ServiceName + "/Keywords"
)

// LexerServer is the server API for the lexer service.
type LexerServer interface {
	// Tokenize returns the tokens and diagnostics of the source text as
	// {"tokens": [...], "diagnostics": [...]}.
	Tokenize(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Keywords returns the reserved words in ascending order.
	Keywords(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

func RegisterLexerServer(s grpc.ServiceRegistrar, srv LexerServer) {
	s.RegisterService(&lexerServiceDesc, srv)
}

func tokenizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LexerServer).Tokenize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: tokenizeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LexerServer).Tokenize(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func keywordsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LexerServer).Keywords(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: keywordsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LexerServer).Keywords(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var lexerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LexerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Tokenize",
			Handler:    tokenizeHandler,
		},
		{
			MethodName: "Keywords",
			Handler:    keywordsHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
