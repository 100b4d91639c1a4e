package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundtripMultipleMessages(t *testing.T) {
	var pipe bytes.Buffer
	fw := NewFrameWriter(&pipe)

	msgs := []FromJvm{
		Write{Tag: 1, Stream: 2, Data: []byte("first")},
		Close{Tag: 3, Stream: 2},
		ExecResult{Tag: 4, Result: ExecOutcome{TaskInfo: &TaskInfo{TaskID: 1}}},
	}
	for _, m := range msgs {
		require.NoError(t, fw.WriteFromJvm(m))
	}

	fr := NewFrameReader(&pipe)
	for _, want := range msgs {
		got, err := fr.ReadFromJvm()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFrameReaderRejectsOversizeLength(t *testing.T) {
	var pipe bytes.Buffer
	var header [4]byte
	header[3] = 0xFF // huge length prefix, well past maxFrameLen
	pipe.Write(header[:])

	fr := NewFrameReader(&pipe)
	_, err := fr.ReadFromJvm()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFrameWriterGrowsScratchForLargePayload(t *testing.T) {
	var pipe bytes.Buffer
	fw := NewFrameWriter(&pipe)

	big := bytes.Repeat([]byte{'x'}, 1<<16)
	require.NoError(t, fw.WriteFromJvm(Write{Tag: 1, Stream: 1, Data: big}))

	fr := NewFrameReader(&pipe)
	got, err := fr.ReadFromJvm()
	require.NoError(t, err)
	w, ok := got.(Write)
	require.True(t, ok)
	assert.Equal(t, big, w.Data)
}
