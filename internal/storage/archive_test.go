package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirdweb-dev/substrate-sink/internal/common"
)

type upload struct {
	key  string
	data []byte
	meta map[string]string
}

type fakeUploader struct {
	uploads []upload
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, key string, data []byte, meta map[string]string) error {
	if u.err != nil {
		return u.err
	}
	u.uploads = append(u.uploads, upload{key: key, data: data, meta: meta})
	return nil
}

func readParquet(t *testing.T, data []byte) []ParquetBlockData {
	t.Helper()
	rows, err := parquet.Read[ParquetBlockData](bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return rows
}

func TestArchiveSink_UploadsWhenFileIsFull(t *testing.T) {
	uploader := &fakeUploader{}
	progress := &fakeProgress{}
	sink := NewArchiveSink(uploader, WithBlocksPerFile(3), WithPrefix("polkadot"), WithArchiveProgress(progress))

	for h := int64(10); h < 13; h++ {
		require.NoError(t, sink.Write(context.Background(), testBlock(h)))
	}

	require.Len(t, uploader.uploads, 1)
	up := uploader.uploads[0]
	assert.Equal(t, "polkadot/blocks_10_12.parquet", up.key)
	assert.Equal(t, "3", up.meta["block_count"])
	assert.Equal(t, 0, sink.Buffered())
	assert.Equal(t, 12, progress.total)

	rows := readParquet(t, up.data)
	require.Len(t, rows, 3)
	assert.Equal(t, "10", rows[0].BlockHeight)
	assert.Equal(t, "12", rows[2].BlockHeight)
	assert.Empty(t, rows[0].Metadata)

	var events []common.Event
	require.NoError(t, json.Unmarshal(rows[1].Events, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Balances.Transfer", events[0].Name)
}

func TestArchiveSink_LastBlockFlushes(t *testing.T) {
	uploader := &fakeUploader{}
	sink := NewArchiveSink(uploader)

	block := testBlock(7)
	block.Extrinsics = nil
	block.Last = true
	require.NoError(t, sink.Write(context.Background(), block))

	require.Len(t, uploader.uploads, 1)
	assert.Equal(t, "blocks_7_7.parquet", uploader.uploads[0].key)

	rows := readParquet(t, uploader.uploads[0].data)
	require.Len(t, rows, 1)
	assert.Equal(t, "[]", string(rows[0].Extrinsics))
}

func TestArchiveSink_FailedUploadRetainsBlocks(t *testing.T) {
	uploader := &fakeUploader{err: assert.AnError}
	sink := NewArchiveSink(uploader, WithBlocksPerFile(2))

	require.NoError(t, sink.Write(context.Background(), testBlock(1)))
	err := sink.Write(context.Background(), testBlock(2))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, sink.Buffered())

	uploader.err = nil
	require.NoError(t, sink.Close())
	require.Len(t, uploader.uploads, 1)
	assert.Equal(t, "blocks_1_2.parquet", uploader.uploads[0].key)
	assert.Zero(t, sink.Buffered())
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	client := &fakeS3{}
	u := &S3Uploader{client: client, bucket: "archive"}

	require.NoError(t, u.Upload(context.Background(), "blocks_1_2.parquet", []byte("PAR1"), map[string]string{"block_count": "2"}))

	assert.Equal(t, "archive", *client.input.Bucket)
	assert.Equal(t, "blocks_1_2.parquet", *client.input.Key)
	assert.Equal(t, []byte("PAR1"), client.body)
	assert.Equal(t, "2", client.input.Metadata["block_count"])
	assert.Equal(t, "4", client.input.Metadata["file_size"])
	assert.Len(t, client.input.Metadata["checksum"], 64)
}
