package mcapreader

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/mcapvideo/pkg/adapters/logger"
	"github.com/user/mcapvideo/pkg/rosmsg"
	"github.com/user/mcapvideo/pkg/testutil/mcapfixture"
)

var testChannels = []mcapfixture.Channel{
	{Topic: "/camera/image_raw", SchemaName: rosmsg.SchemaROSImage},
	{Topic: "/imu", SchemaName: "sensor_msgs/msg/Imu"},
}

func readAll(t *testing.T, src *Source) []uint64 {
	t.Helper()
	var times []uint64
	for {
		rec, err := src.Next(context.Background())
		if err == io.EOF {
			return times
		}
		require.NoError(t, err)
		times = append(times, rec.LogTimeNs)
	}
}

func TestSource_IndexedReadsInLogTimeOrder(t *testing.T) {
	path := mcapfixture.WriteFile(t, testChannels, []mcapfixture.Message{
		{Topic: "/camera/image_raw", LogTimeNs: 300, Data: mcapfixture.Mono8(2, 2, 3)},
		{Topic: "/imu", LogTimeNs: 150, Data: []byte{0, 1, 0, 0}},
		{Topic: "/camera/image_raw", LogTimeNs: 100, Data: mcapfixture.Mono8(2, 2, 1)},
		{Topic: "/camera/image_raw", LogTimeNs: 200, Data: mcapfixture.Mono8(2, 2, 2)},
	}, mcapfixture.Options{})

	src := New(logger.NewNoop())
	require.NoError(t, src.Open(context.Background(), path, "/camera/image_raw"))
	defer src.Close()

	require.True(t, src.Indexed())
	require.Equal(t, []uint64{100, 200, 300}, readAll(t, src))
}

func TestSource_RecordFields(t *testing.T) {
	path := mcapfixture.WriteFile(t, testChannels, []mcapfixture.Message{
		{Topic: "/camera/image_raw", LogTimeNs: 42, Data: mcapfixture.Mono8(1, 1, 9)},
	}, mcapfixture.Options{})

	src := New(logger.NewNoop())
	require.NoError(t, src.Open(context.Background(), path, "/camera/image_raw"))
	defer src.Close()

	rec, err := src.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/camera/image_raw", rec.Topic)
	require.Equal(t, rosmsg.SchemaROSImage, rec.SchemaName)
	require.Equal(t, "cdr", rec.MessageEncoding)
	require.Equal(t, uint32(1), rec.Sequence)

	msg, err := rosmsg.Decode(rec.SchemaName, rec.MessageEncoding, rec.Data)
	require.NoError(t, err)
	require.Equal(t, []byte{9}, msg.Raw.Data)
}

func TestSource_UnindexedReadsInFileOrder(t *testing.T) {
	path := mcapfixture.WriteFile(t, testChannels, []mcapfixture.Message{
		{Topic: "/camera/image_raw", LogTimeNs: 20, Data: mcapfixture.Mono8(1, 1, 0)},
		{Topic: "/camera/image_raw", LogTimeNs: 10, Data: mcapfixture.Mono8(1, 1, 0)},
	}, mcapfixture.Options{Unindexed: true})

	src := New(logger.NewNoop())
	require.NoError(t, src.Open(context.Background(), path, "/camera/image_raw"))
	defer src.Close()

	require.False(t, src.Indexed())
	require.Equal(t, []uint64{20, 10}, readAll(t, src))
}

func TestSource_MissingTopicYieldsNothing(t *testing.T) {
	path := mcapfixture.WriteFile(t, testChannels, []mcapfixture.Message{
		{Topic: "/imu", LogTimeNs: 1, Data: []byte{0, 1, 0, 0}},
	}, mcapfixture.Options{})

	src := New(logger.NewNoop())
	require.NoError(t, src.Open(context.Background(), path, "/camera/image_raw"))
	defer src.Close()

	require.Empty(t, readAll(t, src))
}

func TestSource_OpenMissingFile(t *testing.T) {
	src := New(logger.NewNoop())
	err := src.Open(context.Background(), filepath.Join(t.TempDir(), "nope.mcap"), "/x")
	require.ErrorIs(t, err, ErrInputNotFound)
}

func TestSource_NextBeforeOpen(t *testing.T) {
	src := New(logger.NewNoop())
	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestSource_Channels(t *testing.T) {
	for _, unindexed := range []bool{false, true} {
		path := mcapfixture.WriteFile(t, testChannels, []mcapfixture.Message{
			{Topic: "/camera/image_raw", LogTimeNs: 1, Data: mcapfixture.Mono8(1, 1, 0)},
			{Topic: "/camera/image_raw", LogTimeNs: 2, Data: mcapfixture.Mono8(1, 1, 0)},
			{Topic: "/imu", LogTimeNs: 3, Data: []byte{0, 1, 0, 0}},
		}, mcapfixture.Options{Unindexed: unindexed})

		src := New(logger.NewNoop())
		require.NoError(t, src.Open(context.Background(), path, ""))

		channels, err := src.Channels()
		require.NoError(t, err)
		require.Len(t, channels, 2)
		require.Equal(t, "/camera/image_raw", channels[0].Topic)
		require.Equal(t, rosmsg.SchemaROSImage, channels[0].SchemaName)
		require.Equal(t, uint64(2), channels[0].MessageCount)
		require.Equal(t, "/imu", channels[1].Topic)
		require.Equal(t, uint64(1), channels[1].MessageCount)

		src.Close()
	}
}
