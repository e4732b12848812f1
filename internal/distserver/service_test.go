package distserver_test

import (
	"context"
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/dist"
	"github.com/cory-johannsen/dicedist/internal/distserver"
)

func startServer(t *testing.T, limits dice.Limits, logger *zap.Logger) *distserver.Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	distserver.RegisterDistributionServer(srv, distserver.NewService(dice.NewBuilder(limits, logger), logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return distserver.NewClient(conn)
}

func TestDistribution_Unordered(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	got, err := client.Distribution(context.Background(), dice.MustParse("2d6"), false)
	require.NoError(t, err)

	want, err := dice.Unordered(2, 6)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
	assert.Equal(t, int64(36), got.Total().Int64())
}

func TestDistribution_Ordered(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	got, err := client.Distribution(context.Background(), dice.MustParse("3d2"), true)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Len())
	assert.Equal(t, big.NewRat(1, 8).RatString(), got.Probability(dist.Tuple{2, 1, 2}).RatString())
}

func TestDistribution_RawResponse(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	req, err := structpb.NewStruct(map[string]any{"dice": "3d2"})
	require.NoError(t, err)
	out, err := client.DistributionRaw(context.Background(), req)
	require.NoError(t, err)

	fields := out.GetFields()
	assert.Equal(t, "3d2", fields["pool"].GetStringValue())
	assert.False(t, fields["ordered"].GetBoolValue())
	assert.Equal(t, "8", fields["total"].GetStringValue())

	rows := fields["outcomes"].GetListValue().GetValues()
	require.Len(t, rows, 4)
	second := rows[1].GetStructValue().GetFields()
	assert.Equal(t, "3", second["weight"].GetStringValue())
	assert.Equal(t, "3/8", second["probability"].GetStringValue())
}

func TestDistribution_ZeroDice(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	got, err := client.Distribution(context.Background(), dice.MustParse("0d6"), false)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, big.NewRat(1, 1).RatString(), got.Probability(dist.Tuple{}).RatString())
}

func TestDistribution_InvalidArgument(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	_, err := client.Distribution(context.Background(), dice.Pool{Count: 2, Sides: 0}, false)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err := structpb.NewStruct(map[string]any{"count": 2})
	require.NoError(t, err)
	_, err = client.DistributionRaw(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err = structpb.NewStruct(map[string]any{"count": 2.5, "sides": 6})
	require.NoError(t, err)
	_, err = client.DistributionRaw(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err = structpb.NewStruct(map[string]any{"count": 1e30, "sides": 6})
	require.NoError(t, err)
	_, err = client.DistributionRaw(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err = structpb.NewStruct(map[string]any{"dice": "lots"})
	require.NoError(t, err)
	_, err = client.DistributionRaw(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDistribution_LimitExceeded(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	client := startServer(t, dice.Limits{MaxOutcomes: 50}, zap.New(core))

	_, err := client.Distribution(context.Background(), dice.MustParse("3d6"), true)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	rejected := logs.FilterMessage("distribution rejected").All()
	require.Len(t, rejected, 1)
	assert.NotEmpty(t, rejected[0].ContextMap()["request_id"])
}

// TestDistribution_UnlimitedConfigStillBounded verifies that with no
// configured limits an oversized request is refused rather than crashing the
// handler.
func TestDistribution_UnlimitedConfigStillBounded(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	req, err := structpb.NewStruct(map[string]any{"count": 62, "sides": 2, "ordered": true})
	require.NoError(t, err)
	_, err = client.DistributionRaw(context.Background(), req)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = client.Distribution(context.Background(), dice.Pool{Count: 1, Sides: 1 << 62}, true)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// The server is still serving.
	_, err = client.Distribution(context.Background(), dice.MustParse("2d6"), false)
	assert.NoError(t, err)
}

func TestWeights_Stream(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	entries, err := client.Weights(context.Background(), dice.MustParse("3d2"))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	wantWeights := []int64{1, 3, 3, 1}
	for i, e := range entries {
		assert.Equal(t, wantWeights[i], e.Weight.Int64())
	}
	assert.Equal(t, dist.Tuple{1, 2, 2}, entries[2].Value)
}

func TestWeights_StreamMatchesEngine(t *testing.T) {
	client := startServer(t, dice.Limits{}, zaptest.NewLogger(t))

	entries, err := client.Weights(context.Background(), dice.MustParse("4d5"))
	require.NoError(t, err)

	seq, err := dice.Weights(4, 5)
	require.NoError(t, err)
	i := 0
	for o, w := range seq {
		require.Less(t, i, len(entries))
		assert.Equal(t, o, entries[i].Value)
		assert.Equal(t, 0, w.Cmp(entries[i].Weight))
		i++
	}
	assert.Equal(t, len(entries), i)
}

func TestWeights_LimitExceeded(t *testing.T) {
	client := startServer(t, dice.Limits{MaxDice: 2}, zaptest.NewLogger(t))

	_, err := client.Weights(context.Background(), dice.MustParse("3d6"))
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
