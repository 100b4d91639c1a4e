package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundtripFromJvm(t *testing.T, msg FromJvm) FromJvm {
	t.Helper()
	dst := make([]byte, 4096)
	n, err := EncodeFromJvm(dst, msg)
	require.NoError(t, err)

	consumed, got, err := DecodeFromJvm(dst[:n])
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	return got
}

func roundtripToJvm(t *testing.T, msg ToJvm) ToJvm {
	t.Helper()
	dst := make([]byte, 4096)
	n, err := EncodeToJvm(dst, msg)
	require.NoError(t, err)

	consumed, got, err := DecodeToJvm(dst[:n])
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	return got
}

func TestExecResultRoundtrip(t *testing.T) {
	cases := []ExecResult{
		{Tag: 7, Result: ExecOutcome{TaskInfo: &TaskInfo{TaskID: 42}}},
		{Tag: 8, Result: ExecOutcome{Err: &ExecError{Kind: ExecErrorNoMainFn, Message: "no main"}}},
	}
	for _, c := range cases {
		got := roundtripFromJvm(t, c).(ExecResult)
		assert.Equal(t, c, got)
	}
}

func TestWriteAndReadRoundtrip(t *testing.T) {
	w := Write{Tag: 1, Stream: 2, Data: []byte("hello")}
	got := roundtripFromJvm(t, w).(Write)
	assert.Equal(t, w, got)

	r := Read{Tag: 3, Stream: 4, Size: 128}
	gotR := roundtripFromJvm(t, r).(Read)
	assert.Equal(t, r, gotR)
}

func TestWaitResultAndCloseRoundtrip(t *testing.T) {
	wr := WaitResult{Tag: 9, Timeout: true}
	assert.Equal(t, wr, roundtripFromJvm(t, wr).(WaitResult))

	c := Close{Tag: 10, Stream: 11}
	assert.Equal(t, c, roundtripFromJvm(t, c).(Close))
}

func TestExecRoundtripWithStreams(t *testing.T) {
	stdout := StreamID(3)
	e := Exec{
		Tag:       1,
		MainClass: "com.example.Main",
		Params:    []string{"a", "b"},
		Stdout:    &stdout,
	}
	got := roundtripToJvm(t, e).(Exec)
	assert.Equal(t, e, got)
	assert.Nil(t, got.Stderr)
	assert.Nil(t, got.Stdin)
}

func TestWaitRoundtripNoTimeout(t *testing.T) {
	w := Wait{Tag: 5, Task: 6}
	got := roundtripToJvm(t, w).(Wait)
	assert.Equal(t, w, got)
}

func TestWaitRoundtripWithTimeout(t *testing.T) {
	d := 3 * time.Second
	w := Wait{Tag: 5, Task: 6, Timeout: &d}
	got := roundtripToJvm(t, w).(Wait)
	require.NotNil(t, got.Timeout)
	assert.Equal(t, d, *got.Timeout)
}

func TestWriteResultAndReadResultRoundtrip(t *testing.T) {
	wr := WriteResult{Tag: 1, Result: Ok[uint32](9)}
	assert.Equal(t, wr, roundtripToJvm(t, wr).(WriteResult))

	wrErr := WriteResult{Tag: 2, Result: ErrResult[uint32](NewIoError(ErrBrokenPipe, "broken"))}
	got := roundtripToJvm(t, wrErr).(WriteResult)
	require.True(t, got.Result.IsErr())
	assert.Equal(t, ErrBrokenPipe, got.Result.Err.Kind)

	rr := ReadResult{Tag: 3, Result: Ok[[]byte]([]byte("data"))}
	assert.Equal(t, rr, roundtripToJvm(t, rr).(ReadResult))
}

func TestCloseResultRoundtrip(t *testing.T) {
	ok := CloseResult{Tag: 1, Result: Ok[struct{}](struct{}{})}
	assert.Equal(t, ok, roundtripToJvm(t, ok).(CloseResult))

	failed := CloseResult{Tag: 2, Result: ErrResult[struct{}](Other("bad stream"))}
	got := roundtripToJvm(t, failed).(CloseResult)
	require.True(t, got.Result.IsErr())
	assert.Equal(t, "bad stream", got.Result.Err.Message)
}

func TestDecodeUnexpectedEndDoesNotConsume(t *testing.T) {
	full := make([]byte, 64)
	n, err := EncodeFromJvm(full, Close{Tag: 1, Stream: 2})
	require.NoError(t, err)

	_, _, err = DecodeFromJvm(full[:n-1])
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
}

func TestDecodeMalformedVariantIsFatal(t *testing.T) {
	buf := []byte{99, 0, 0, 0}
	_, _, err := DecodeFromJvm(buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestUnknownErrorKindDecodesAsOther(t *testing.T) {
	var buf bytes.Buffer
	bw := &binWriter{w: &buf}
	bw.u32(999) // out-of-range ErrorKind
	bw.str("weird")

	br := &binReader{r: bytes.NewReader(buf.Bytes())}
	got := br.ioError()
	require.NoError(t, br.err)
	assert.Equal(t, ErrOther, got.Kind)
	assert.Equal(t, "weird", got.Message)
}

func TestEncodeShortBufferIsRetryable(t *testing.T) {
	tiny := make([]byte, 1)
	_, err := EncodeFromJvm(tiny, Write{Tag: 1, Stream: 2, Data: []byte("hello world")})
	assert.ErrorIs(t, err, ErrShortBuffer)
}
