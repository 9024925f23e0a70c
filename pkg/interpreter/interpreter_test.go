package interpreter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/psilLang/brainfuck/pkg/parser"
	"github.com/psilLang/brainfuck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]" +
	">>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

// example from https://esolangs.org/wiki/Brainfuck, relies on cell wraparound
const helloWorldNegative = ">++++++++[-<+++++++++>]<.>>+>-[+]++>++>+++[>[->+++<<+++>]<<]>-----.>->" +
	"+++..+++.>-.<<+[>[+>+]>>]<--------------.>>.+++.------.--------.>+.>+."

// from http://brainfuck.org/tests.b
const obscureProblems = "[]++++++++++[>>+>+>++++++[<<+<+++>>>-]<<<<-]" +
	"\"A*$\";?@![#>>+<<]>[>>]<<<<[>++<[-]]>.>."

// Helper to parse and run code and capture output
func runBF(t *testing.T, code, input string) (*Interpreter, string) {
	t.Helper()
	var out bytes.Buffer
	interp := New(strings.NewReader(input), &out)

	seq, err := parser.Parse(code)
	require.NoError(t, err)
	require.NoError(t, interp.Interpret(seq))
	return interp, out.String()
}

func TestEcho(t *testing.T) {
	var out bytes.Buffer
	interp := New(strings.NewReader("1234"), &out)

	err := interp.Interpret(types.Sequence{
		types.IncrementByte(4),
		types.Loop{Body: types.Sequence{
			types.IncrementDataPointer(1),
			types.ReadByte{},
			types.WriteByte{},
			types.DecrementDataPointer(1),
			types.DecrementByte(1),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1234", out.String())
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		input    string
		expected string
	}{
		{"hello world", helloWorld, "", "Hello World!\n"},
		{"hello world negative", helloWorldNegative, "", "Hello World!\n"},
		{"obscure problems", obscureProblems, "\n", "H\n"},
		{"cat", ",[.,]", "echo me\x00", "echo me"},
		{"eof keeps last byte", ",,.", "A", "A"},
		{"read write", ",.", "A", "A"},
		{"wraparound", "-.", "", "\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output := runBF(t, tt.code, tt.input)
			assert.Equal(t, tt.expected, output)
		})
	}
}

func TestReadAtEOFLeavesCell(t *testing.T) {
	interp, output := runBF(t, "+++++,.", "")
	assert.Equal(t, "\x05", output)
	assert.Equal(t, byte(5), interp.Cell())
}

func TestReadFromPlainReader(t *testing.T) {
	// onlyReader hides io.ByteReader so the io.ReadFull path is used
	var out bytes.Buffer
	interp := New(onlyReader{strings.NewReader("xy")}, &out)
	seq, err := parser.Parse(",.,.,.")
	require.NoError(t, err)
	require.NoError(t, interp.Interpret(seq))
	assert.Equal(t, "xyy", out.String())
}

func TestDecrementAtZero(t *testing.T) {
	var out bytes.Buffer
	interp := New(nil, &out)

	err := interp.Interpret(types.Sequence{types.DecrementDataPointer(1)})
	require.ErrorIs(t, err, types.ErrDataPointerOutsideMemory)
	assert.True(t, types.IsRuntimeError(err))
	assert.Empty(t, out.String())
	assert.Equal(t, 0, interp.Pointer())
	assert.Equal(t, types.Stats{InstructionCount: 0, UsedMemory: 1}, interp.Stats())
}

func TestPointerUnchangedOnError(t *testing.T) {
	interp := New(nil, nil)
	require.NoError(t, interp.MovePointer(3))

	err := interp.MovePointer(-4)
	require.ErrorIs(t, err, types.ErrDataPointerOutsideMemory)
	assert.Equal(t, 3, interp.Pointer())
	assert.Equal(t, 4, interp.Stats().UsedMemory)
}

func TestPointerCeiling(t *testing.T) {
	interp := New(nil, nil)
	require.NoError(t, interp.MovePointer(1))

	err := interp.MovePointer(int(^uint(0) >> 1))
	require.ErrorIs(t, err, types.ErrDataPointerOutsideMemory)
	assert.Equal(t, 1, interp.Pointer())
	assert.Equal(t, 2, interp.Stats().UsedMemory)
}

func TestPointerBeyondMaxTape(t *testing.T) {
	interp := New(nil, nil)

	err := interp.Interpret(types.Sequence{types.IncrementDataPointer(math.MaxInt / 2)})
	require.ErrorIs(t, err, types.ErrDataPointerOutsideMemory)

	err = interp.MovePointer(MaxTapeLength)
	require.ErrorIs(t, err, types.ErrDataPointerOutsideMemory)
	assert.Equal(t, 0, interp.Pointer())
	assert.Equal(t, 1, interp.Stats().UsedMemory)
	assert.Equal(t, uint64(0), interp.Stats().InstructionCount)

	// a limit above MaxTapeLength is clamped
	interp = New(nil, nil, WithMemoryLimit(MaxTapeLength+1))
	assert.Equal(t, MaxTapeLength-1, interp.ceiling())
	interp = New(nil, nil, WithMemoryLimit(16))
	assert.Equal(t, 15, interp.ceiling())
}

func TestMemoryLimit(t *testing.T) {
	interp := New(nil, nil, WithMemoryLimit(8))

	require.NoError(t, interp.Interpret(types.Sequence{types.IncrementDataPointer(7)}))
	assert.Equal(t, 8, interp.Stats().UsedMemory)

	err := interp.Interpret(types.Sequence{types.IncrementDataPointer(1)})
	require.ErrorIs(t, err, types.ErrDataPointerOutsideMemory)
	assert.Equal(t, 7, interp.Pointer())
	assert.Equal(t, 8, interp.Stats().UsedMemory)
}

func TestTapeNeverShrinks(t *testing.T) {
	interp := New(nil, nil)
	require.NoError(t, interp.Interpret(types.Sequence{
		types.IncrementDataPointer(5),
		types.DecrementDataPointer(5),
	}))
	assert.Equal(t, 6, interp.Stats().UsedMemory)
	assert.Equal(t, 0, interp.Pointer())
	assert.Equal(t, make([]byte, 6), interp.Memory())
}

func TestEmptyLoop(t *testing.T) {
	var out bytes.Buffer
	interp := New(nil, &out)

	// never entered, so not an error
	require.NoError(t, interp.Interpret(types.Sequence{types.Loop{}}))

	err := interp.Interpret(types.Sequence{
		types.IncrementByte(1),
		types.WriteByte{},
		types.Loop{Body: types.Sequence{}},
		types.WriteByte{},
	})
	require.ErrorIs(t, err, types.ErrEmptyLoop)
	// the first write happened and is not rolled back
	assert.Equal(t, "\x01", out.String())
}

func TestNestedEmptyLoop(t *testing.T) {
	seq, err := parser.Parse("+[>+[]<-]")
	require.NoError(t, err)

	interp := New(nil, nil)
	err = interp.Interpret(seq)
	require.ErrorIs(t, err, types.ErrEmptyLoop)
	assert.Equal(t, 1, interp.Pointer())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk on fire") }

type failingFlusher struct {
	bytes.Buffer
}

var errFlush = errors.New("flush failed")

func (*failingFlusher) Flush() error { return errFlush }

type onlyReader struct {
	r *strings.Reader
}

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func TestWriteError(t *testing.T) {
	interp := New(nil, failingWriter{})

	err := interp.Interpret(types.Sequence{types.WriteByte{}, types.IncrementByte(1)})
	var werr *types.WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "disk on fire", werr.Err.Error())
	assert.Equal(t, "output error: disk on fire", err.Error())
	assert.Equal(t, byte(0), interp.Cell())
}

func TestFlushError(t *testing.T) {
	interp := New(nil, &failingFlusher{})

	err := interp.Interpret(types.Sequence{types.WriteByte{}})
	require.ErrorIs(t, err, errFlush)
	var werr *types.WriteError
	assert.True(t, errors.As(err, &werr))
}

func TestFlushAfterEveryWrite(t *testing.T) {
	var sink bytes.Buffer
	w := bufio.NewWriterSize(&sink, 4096)
	interp := New(nil, w)

	require.NoError(t, interp.Interpret(types.Sequence{types.IncrementByte(65), types.WriteByte{}}))
	// without a flush the byte would still sit in the bufio buffer
	assert.Equal(t, "A", sink.String())
}

func TestStats(t *testing.T) {
	interp := New(nil, nil)

	err := interp.Interpret(types.Sequence{
		types.IncrementDataPointer(64),
		types.IncrementByte(128),
		types.Loop{Body: types.Sequence{types.DecrementByte(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.Stats{InstructionCount: 320, UsedMemory: 65}, interp.Stats())
}

func TestStatsCountIO(t *testing.T) {
	interp, _ := runBF(t, ",.,.", "ab")
	assert.Equal(t, uint64(4), interp.Stats().InstructionCount)
}

func TestStatsAccumulateAcrossCalls(t *testing.T) {
	interp := New(nil, nil)
	seq := types.Sequence{types.IncrementDataPointer(2), types.DecrementByte(3)}

	require.NoError(t, interp.Interpret(seq))
	require.NoError(t, interp.Interpret(seq))
	assert.Equal(t, types.Stats{InstructionCount: 10, UsedMemory: 5}, interp.Stats())
}

func TestReset(t *testing.T) {
	var out bytes.Buffer
	interp, _ := runBF(t, helloWorld, "")
	interp.SetOutput(&out)

	interp.Reset()
	assert.Equal(t, types.Stats{InstructionCount: 0, UsedMemory: 1}, interp.Stats())
	assert.Equal(t, 0, interp.Pointer())
	assert.Equal(t, []byte{0}, interp.Memory())

	interp.Reset()
	assert.Equal(t, types.Stats{InstructionCount: 0, UsedMemory: 1}, interp.Stats())

	// streams survive a reset
	seq, err := parser.Parse(helloWorld)
	require.NoError(t, err)
	require.NoError(t, interp.Interpret(seq))
	assert.Equal(t, "Hello World!\n", out.String())
}

func TestWrapToMultipleOf256IsNoop(t *testing.T) {
	interp := New(nil, nil)
	interp.ModifyCell(7)

	tests := []types.Sequence{
		{types.IncrementByte(200), types.IncrementByte(56)},
		{types.DecrementByte(255), types.DecrementByte(1)},
		{types.IncrementByte(255), types.IncrementByte(255), types.IncrementByte(2)},
		{types.IncrementByte(100), types.DecrementByte(100)},
	}
	for n, seq := range tests {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			require.NoError(t, interp.Interpret(seq))
			assert.Equal(t, byte(7), interp.Cell())
		})
	}
}

func TestDeterministic(t *testing.T) {
	programs := []struct {
		code  string
		input string
	}{
		{helloWorld, ""},
		{obscureProblems, "\n"},
		{",[.,]", "some input bytes\x00"},
	}

	for _, p := range programs {
		first, out1 := runBF(t, p.code, p.input)
		second, out2 := runBF(t, p.code, p.input)
		assert.Equal(t, out1, out2)
		assert.Equal(t, first.Stats(), second.Stats())
		assert.Equal(t, first.Memory(), second.Memory())
	}
}

func TestIndependentInstances(t *testing.T) {
	seq, err := parser.Parse(helloWorld)
	require.NoError(t, err)

	var wg sync.WaitGroup
	outputs := make([]bytes.Buffer, 8)
	errs := make([]error, len(outputs))
	for n := range outputs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = New(nil, &outputs[n]).Interpret(seq)
		}(n)
	}
	wg.Wait()

	for n := range outputs {
		require.NoError(t, errs[n])
		assert.Equal(t, "Hello World!\n", outputs[n].String())
	}
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	interp := New(nil, nil, WithLogger(logger))

	require.NoError(t, interp.Interpret(types.Sequence{types.IncrementByte(3)}))
	assert.Contains(t, buf.String(), `"msg":"interpret"`)
	assert.Contains(t, buf.String(), `"msg":"interpret done"`)
	assert.Contains(t, buf.String(), `"instructions":3`)
}

func TestQuietLoggerSkipsTreeWalk(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	interp := New(nil, nil, WithLogger(logger))

	require.NoError(t, interp.Interpret(types.Sequence{types.IncrementByte(3)}))
	assert.Empty(t, buf.String())
}
