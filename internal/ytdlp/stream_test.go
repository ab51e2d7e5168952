package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamWriter_SplitsCarriageReturns(t *testing.T) {
	var got []string
	w := &streamWriter{stream: "stdout", callback: func(_, line string) { got = append(got, line) }}

	_, _ = w.Write([]byte("[download]   1.0% of 10MiB\r[download]  5"))
	_, _ = w.Write([]byte("0.0% of 10MiB\r\n\n  \n[Merger] done"))
	w.flush()

	assert.Equal(t, []string{
		"[download]   1.0% of 10MiB",
		"[download]  50.0% of 10MiB",
		"[Merger] done",
	}, got)
	assert.Equal(t, "[download]   1.0% of 10MiB\r[download]  50.0% of 10MiB\r\n\n  \n[Merger] done", w.String())
}

func TestStreamWriter_NoCallbackStillBuffers(t *testing.T) {
	w := &streamWriter{}
	n, err := w.Write([]byte("abc\n"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	w.flush()
	assert.Equal(t, "abc\n", w.String())
}

func TestCaptureLimit_SharedAcrossWriters(t *testing.T) {
	fired := 0
	limit := &captureLimit{max: 8, onExceed: func() { fired++ }}
	out := &streamWriter{limit: limit}
	errw := &streamWriter{limit: limit}

	n, _ := out.Write([]byte("12345"))
	assert.Equal(t, 5, n)
	n, _ = errw.Write([]byte("6789"))
	assert.Equal(t, 4, n, "writes past the limit still report full length")
	_, _ = out.Write([]byte("x"))

	assert.True(t, limit.Exceeded())
	assert.Equal(t, 1, fired)
	assert.Equal(t, "12345", out.String())
	assert.Empty(t, errw.String())
}
