package tsprep

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const googleStoragePrefix = "gs://"

// OpenInput opens a local path (a leading ~/ is expanded) or a gs://
// bucket/object URL and transparently decompresses gzip, BGZF and zstd
// content. A nil client is replaced by a new one when the path needs it; that
// client is then closed together with the returned reader.
func OpenInput(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var raw io.ReadCloser
	var closers []io.Closer

	if strings.HasPrefix(path, googleStoragePrefix) {
		bucket, object, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, err
		}

		if client == nil {
			client, err = storage.NewClient(ctx)
			if err != nil {
				return nil, pfx.Err(err)
			}
			closers = append(closers, client)
		}

		r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			closeAll(closers)
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		raw = r
	} else {
		f, err := os.Open(genomisc.ExpandHome(path))
		if err != nil {
			return nil, pfx.Err(err)
		}
		raw = f
	}

	// Innermost first: the raw handle closes before the storage client.
	closers = append([]io.Closer{raw}, closers...)

	br := bufio.NewReaderSize(raw, 1<<16)
	head, _ := br.Peek(len(magicZStandard))

	switch DetectCompression(head) {
	case CompressionGZIP:
		gz, err := gzip.NewReader(br)
		if err != nil {
			closeAll(closers)
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return &multiCloser{Reader: gz, closers: append([]io.Closer{gz}, closers...)}, nil

	case CompressionZStandard:
		dec, err := zstd.NewReader(br)
		if err != nil {
			closeAll(closers)
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		rc := dec.IOReadCloser()
		return &multiCloser{Reader: rc, closers: append([]io.Closer{rc}, closers...)}, nil
	}

	return &multiCloser{Reader: br, closers: closers}, nil
}

func splitGoogleStoragePath(path string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(path, googleStoragePrefix)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", pfx.Err(fmt.Errorf("%q is not a gs://bucket/object path", path))
	}
	return parts[0], parts[1], nil
}

// multiCloser reads from the outermost decoder and closes every layer.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	return closeAll(m.closers)
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = pfx.Err(err)
		}
	}
	return first
}
