package distserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/dist"
)

// Client calls a remote DistributionService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func poolRequest(pool dice.Pool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"count": structpb.NewNumberValue(float64(pool.Count)),
		"sides": structpb.NewNumberValue(float64(pool.Sides)),
	}}
}

// DistributionRaw sends req unchanged and returns the raw response.
func (c *Client) DistributionRaw(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, distributionMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Distribution fetches the distribution of pool and rebuilds it locally.
func (c *Client) Distribution(ctx context.Context, pool dice.Pool, ordered bool, opts ...grpc.CallOption) (*dist.Distribution, error) {
	req := poolRequest(pool)
	req.Fields["ordered"] = structpb.NewBoolValue(ordered)
	out, err := c.DistributionRaw(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	var entries []dist.Entry
	for _, row := range out.GetFields()["outcomes"].GetListValue().GetValues() {
		e, err := decodeEntry(row.GetStructValue())
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return dist.New(entries)
}

// Weights streams the unordered outcomes of pool and returns them in the
// order the server sent them.
func (c *Client) Weights(ctx context.Context, pool dice.Pool, opts ...grpc.CallOption) ([]dist.Entry, error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], weightsMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(poolRequest(pool)); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var entries []dist.Entry
	for {
		msg := new(structpb.Struct)
		err := stream.RecvMsg(msg)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		e, err := decodeEntry(msg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

func decodeEntry(s *structpb.Struct) (dist.Entry, error) {
	fields := s.GetFields()
	var v dist.Tuple
	for _, x := range fields["outcome"].GetListValue().GetValues() {
		v = append(v, int(x.GetNumberValue()))
	}
	if v == nil {
		v = dist.Tuple{}
	}
	w, ok := new(big.Int).SetString(fields["weight"].GetStringValue(), 10)
	if !ok {
		return dist.Entry{}, fmt.Errorf("distserver: malformed weight %q", fields["weight"].GetStringValue())
	}
	return dist.Entry{Value: v, Weight: w}, nil
}
