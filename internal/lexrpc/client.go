// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/open-edge-platform/pascal-lint/api/v1"
)

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Tokenize sends src to the lexer service and decodes the result into the HTTP API types.
func (c *Client) Tokenize(ctx context.Context, src string, opts ...grpc.CallOption) (*api.TokenizeResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, tokenizeMethod, wrapperspb.String(src), out, opts...); err != nil {
		return nil, err
	}

	data, err := protojson.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tokenize result: %w", err)
	}
	var res api.TokenizeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode tokenize result: %w", err)
	}
	return &res, nil
}

func (c *Client) Keywords(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, keywordsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}

	keywords := make([]string, len(out.GetValues()))
	for i, v := range out.GetValues() {
		kw, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("unexpected keyword value at index %d", i)
		}
		keywords[i] = kw.StringValue
	}
	return keywords, nil
}
