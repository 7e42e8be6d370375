package tsprep

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeGzipFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// vcfText builds a small VCF with a GT-only FORMAT column.
func vcfText(samples []string, records ...string) string {
	var sb strings.Builder
	sb.WriteString("##fileformat=VCFv4.2\n")
	sb.WriteString("##contig=<ID=1,length=10000>\n")
	sb.WriteString("##contig=<ID=2,length=10000>\n")
	sb.WriteString("##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n")
	sb.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for _, s := range samples {
		sb.WriteString("\t" + s)
	}
	sb.WriteString("\n")
	for _, r := range records {
		sb.WriteString(r + "\n")
	}
	return sb.String()
}

// vcfRecord formats one data line.
func vcfRecord(chrom string, pos int, ref, alt string, gts ...string) string {
	return fmt.Sprintf("%s\t%d\t.\t%s\t%s\t50\tPASS\t.\tGT\t%s", chrom, pos, ref, alt, strings.Join(gts, "\t"))
}

func quietLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}
