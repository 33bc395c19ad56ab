package audit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/altsheet/pkg/altext"
	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/logger"
	"github.com/memtensor/altsheet/pkg/metrics"
)

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func newAuditor(dir string, out *bytes.Buffer) *Auditor {
	return NewAuditor(Config{XMLDir: dir, Extract: altext.DefaultOptions()}, out, logger.NewTestLogger(), nil)
}

func TestAuditorRun(t *testing.T) {
	dir := t.TempDir()
	// Both entries count as missing: "" on first use and nil on the figure without image.
	writeDoc(t, dir, "a.xml", `<Root><Figure><ImageData src="a_1.jpg"/></Figure><Figure/></Root>`)
	// One figure has alt text, so this document has some coverage.
	writeDoc(t, dir, "b.xml", `<Root><Figure Alt="x"><ImageData src="b_1.jpg"/></Figure><Figure Alt=""/></Root>`)
	// No figures at all counts as without alt.
	writeDoc(t, dir, "c.xml", `<Root><Para>text</Para></Root>`)
	writeDoc(t, dir, "notes.txt", `ignored`)

	var out bytes.Buffer
	report, err := newAuditor(dir, &out).Run(context.Background())
	require.NoError(t, err)

	expected := "a.xml: 2/2\n" +
		"b.xml: 2/1\n" +
		"c.xml: 0/0\n" +
		"Number of files:  3\n" +
		"Number of files without alt:  2\n"
	assert.Equal(t, expected, out.String())

	assert.Equal(t, 3, report.Total())
	assert.Equal(t, 2, report.WithoutAlt())
	assert.Empty(t, report.Failed())
}

func TestAuditorUnreadableDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.xml", `<Root><Figure Alt="x"><ImageData src="g_1.jpg"/></Figure></Root>`)
	writeDoc(t, dir, "bad.xml", `<Root><Figure>`)

	var out bytes.Buffer
	report, err := newAuditor(dir, &out).Run(context.Background())
	require.Error(t, err)
	assert.True(t, alterrors.IsCode(err, alterrors.ErrCodeInvalidDocument))

	assert.Equal(t, "good.xml: 1/0\nNumber of files:  1\nNumber of files without alt:  0\n", out.String())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "bad.xml", report.Failed()[0].Document)
}

func TestAuditorMissingDirectory(t *testing.T) {
	var out bytes.Buffer
	report, err := newAuditor(filepath.Join(t.TempDir(), "missing"), &out).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, alterrors.IsCode(err, alterrors.ErrCodeFileNotFound))
	assert.Empty(t, out.String())
}

func TestAuditorCancelled(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.xml", `<Root/>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := newAuditor(dir, &out).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuditorMetrics(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.xml", `<Root><Figure Alt="x"><ImageData src="a_1.jpg"/></Figure><Figure/></Root>`)

	m := metrics.NewPrometheusMetrics()
	var out bytes.Buffer
	_, err := NewAuditor(Config{XMLDir: dir}, &out, logger.NewTestLogger(), m).Run(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Gatherer(), metrics.AuditFiguresTotal, metrics.AuditDocuments)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewAuditorDefaultsLogger(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "bad.xml", `<Root><Figure>`)

	a := NewAuditor(Config{XMLDir: dir}, &bytes.Buffer{}, nil, nil)
	require.NotNil(t, a.logger)

	var err error
	assert.NotPanics(t, func() {
		_, err = a.Run(context.Background())
	})
	assert.True(t, alterrors.IsCode(err, alterrors.ErrCodeInvalidDocument))
}
