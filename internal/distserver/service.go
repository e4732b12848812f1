// Package distserver exposes dice distributions over gRPC.
//
// The service uses protobuf well-known types (structpb.Struct) for every
// message, so it is registered from a hand-written grpc.ServiceDesc rather
// than protoc-generated stubs.
package distserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/dist"
)

// Method names, as they appear on the wire.
const (
	ServiceName        = "dicedist.v1.DistributionService"
	distributionMethod = "/" + ServiceName + "/Distribution"
	weightsMethod      = "/" + ServiceName + "/Weights"
)

// DistributionServer is the server API of the distribution service.
type DistributionServer interface {
	// Distribution returns the whole distribution for a pool.
	Distribution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Weights streams one message per unordered outcome.
	Weights(req *structpb.Struct, stream grpc.ServerStream) error
}

// RegisterDistributionServer registers srv on s.
func RegisterDistributionServer(s grpc.ServiceRegistrar, srv DistributionServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DistributionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Distribution", Handler: distributionHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Weights", Handler: weightsHandler, ServerStreams: true},
	},
	Metadata: "dicedist/v1/distribution.proto",
}

func distributionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DistributionServer).Distribution(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: distributionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DistributionServer).Distribution(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func weightsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DistributionServer).Weights(in, stream)
}

// Service implements DistributionServer on top of a dice.Builder.
type Service struct {
	builder *dice.Builder
	logger  *zap.Logger
}

// NewService creates a Service.
//
// Precondition: builder and logger must be non-nil.
func NewService(builder *dice.Builder, logger *zap.Logger) *Service {
	return &Service{builder: builder, logger: logger}
}

// poolFromRequest reads either {"dice": "NdM"} or {"count": N, "sides": M}.
func poolFromRequest(req *structpb.Struct) (dice.Pool, error) {
	fields := req.GetFields()
	if v, ok := fields["dice"]; ok {
		return dice.Parse(v.GetStringValue())
	}
	count, okCount := fields["count"]
	sides, okSides := fields["sides"]
	if !okCount || !okSides {
		return dice.Pool{}, fmt.Errorf("%w: request needs \"dice\" or both \"count\" and \"sides\"", dice.ErrInvalidArgument)
	}
	n, okN := exactInt(count.GetNumberValue())
	m, okM := exactInt(sides.GetNumberValue())
	if !okN || !okM {
		return dice.Pool{}, fmt.Errorf("%w: count and sides must be integers", dice.ErrInvalidArgument)
	}
	return dice.Pool{Count: n, Sides: m}, nil
}

// exactInt converts f to int when f is integral and inside the int64 range.
func exactInt(f float64) (int, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, false
	}
	return int(f), true
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, dice.ErrInvalidArgument), errors.Is(err, dist.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, dice.ErrLimitExceeded), errors.Is(err, dice.ErrOverflow), errors.Is(err, dist.ErrTooLarge):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func outcomeValue(t dist.Tuple) *structpb.Value {
	vals := make([]*structpb.Value, len(t))
	for i, v := range t {
		vals[i] = structpb.NewNumberValue(float64(v))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

// Distribution returns {pool, ordered, total, outcomes: [{outcome, weight,
// probability}]}. Weights and probabilities are exact decimal and fraction
// strings.
func (s *Service) Distribution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	requestID := uuid.NewString()

	pool, err := poolFromRequest(req)
	if err != nil {
		return nil, toStatus(err)
	}
	ordered := req.GetFields()["ordered"].GetBoolValue()

	d, err := s.builder.Build(pool, ordered)
	if err != nil {
		s.logger.Info("distribution rejected",
			zap.String("request_id", requestID),
			zap.Stringer("pool", pool),
			zap.Error(err),
		)
		return nil, toStatus(err)
	}

	total := d.Total()
	rows := make([]*structpb.Value, 0, d.Len())
	for v, w := range d.All() {
		if err := ctx.Err(); err != nil {
			return nil, status.FromContextError(err).Err()
		}
		rows = append(rows, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"outcome":     outcomeValue(v),
			"weight":      structpb.NewStringValue(w.String()),
			"probability": structpb.NewStringValue(new(big.Rat).SetFrac(w, total).RatString()),
		}}))
	}

	s.logger.Info("distribution served",
		zap.String("request_id", requestID),
		zap.Stringer("pool", pool),
		zap.Bool("ordered", ordered),
		zap.Int("outcomes", d.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"pool":     structpb.NewStringValue(pool.String()),
		"ordered":  structpb.NewBoolValue(ordered),
		"total":    structpb.NewStringValue(total.String()),
		"outcomes": structpb.NewListValue(&structpb.ListValue{Values: rows}),
	}}, nil
}

// Weights streams {outcome, weight} for every unordered outcome directly from
// the lazy weighting engine.
func (s *Service) Weights(req *structpb.Struct, stream grpc.ServerStream) error {
	requestID := uuid.NewString()

	pool, err := poolFromRequest(req)
	if err != nil {
		return toStatus(err)
	}
	seq, err := s.builder.Weights(pool)
	if err != nil {
		return toStatus(err)
	}

	sent := 0
	for o, w := range seq {
		msg := &structpb.Struct{Fields: map[string]*structpb.Value{
			"outcome": outcomeValue(o),
			"weight":  structpb.NewStringValue(w.String()),
		}}
		if err := stream.SendMsg(msg); err != nil {
			s.logger.Warn("weights stream aborted",
				zap.String("request_id", requestID),
				zap.Int("sent", sent),
				zap.Error(err),
			)
			return err
		}
		sent++
	}
	s.logger.Info("weights streamed",
		zap.String("request_id", requestID),
		zap.Stringer("pool", pool),
		zap.Int("outcomes", sent),
	)
	return nil
}
