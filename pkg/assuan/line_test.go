package assuan

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shlevy/gnupg/pkg/must"
	"github.com/shlevy/gnupg/pkg/tt"
)

func TestClassify(t *testing.T) {
	tt.Test(t, tt.Fn("Classify", Classify), tt.Table{
		tt.Args("OK").Rets(Line{OK, "", "OK"}, error(nil)),
		tt.Args("OK Pleased to meet you").
			Rets(Line{OK, "Pleased to meet you", "OK Pleased to meet you"}, error(nil)),
		tt.Args("ERR").Rets(Line{ERR, "", "ERR"}, error(nil)),
		tt.Args("ERR 1 failed").Rets(Line{ERR, "1 failed", "ERR 1 failed"}, error(nil)),
		tt.Args("S").Rets(Line{STAT, "", "S"}, error(nil)),
		tt.Args("S PROGRESS 1").Rets(Line{STAT, "PROGRESS 1", "S PROGRESS 1"}, error(nil)),
		tt.Args("D ").Rets(Line{DATA, "", "D "}, error(nil)),
		tt.Args("D %25data").Rets(Line{DATA, "%25data", "D %25data"}, error(nil)),
		tt.Args("END").Rets(Line{END, "", "END"}, error(nil)),

		tt.Args("OKAY").Rets(Line{}, errors.New("invalid line type (OKAY)")),
		tt.Args("D").Rets(Line{}, errors.New("invalid line type (D)")),
		tt.Args("END ").Rets(Line{}, errors.New("invalid line type (END )")),
		tt.Args("ERROR 1").Rets(Line{}, errors.New("invalid line type (ERROR)")),
		tt.Args("Sx").Rets(Line{}, errors.New("invalid line type (Sx)")),
		tt.Args("ok").Rets(Line{}, errors.New("invalid line type (ok)")),
		tt.Args("").Rets(Line{}, errors.New("invalid line type ()")),
	})
}

func TestKindString(t *testing.T) {
	got := []string{OK.String(), ERR.String(), STAT.String(), DATA.String(), END.String(), Kind(9).String()}
	want := []string{"OK", "ERR", "S", "D", "END", "Kind(9)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Kind.String (-want +got):\n%s", diff)
	}
}

func TestWriteThenRead(t *testing.T) {
	lines := []string{
		"OK",
		"OK Pleased to meet you",
		"ERR 67108881 No data <GPG Agent>",
		"S INQUIRE_MAXLEN 255",
		"D " + strings.Repeat("x", MaxLineLen-2),
		"END",
		"OK " + strings.Repeat("y", MaxLineLen-3),
	}
	var buf bytes.Buffer
	for _, line := range lines {
		if err := WriteLine(&buf, line); err != nil {
			t.Fatalf("WriteLine(%q) -> %v", line, err)
		}
	}

	r := NewReader(&buf)
	for _, want := range lines {
		got, err := r.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine -> %v, want %q", err, want)
		}
		wantLine, _ := Classify(want)
		if got != wantLine {
			t.Errorf("ReadLine -> %v, want %v", got, wantLine)
		}
	}
	if _, err := r.ReadLine(); !errors.Is(err, ErrIncompleteLine) {
		t.Errorf("ReadLine at end -> %v, want ErrIncompleteLine", err)
	}
}

func TestReadLine_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"too large", "D " + strings.Repeat("x", MaxLineLen) + "\n", ErrLineTooLarge},
		{"no newline", "OK", ErrIncompleteLine},
		{"empty stream", "", ErrIncompleteLine},
		{"invalid type", "HELLO\n", ErrInvalidLineType},
		{"empty line", "\n", ErrInvalidLineType},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(test.input)).ReadLine()
			if !errors.Is(err, test.want) {
				t.Errorf("got error %v, want %v", err, test.want)
			}
		})
	}
}

func TestReadLine_ReadError(t *testing.T) {
	errRead := errors.New("broken")
	_, err := NewReader(io.MultiReader(strings.NewReader("OK"), errReader{errRead})).ReadLine()
	if !errors.Is(err, errRead) || !strings.HasPrefix(err.Error(), "reading input failed") {
		t.Errorf("got error %v", err)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	WriteLine(&buf, "NOP")
	WriteLine(&buf, "BYE\n")
	WriteLine(&buf, "")
	if got, want := buf.String(), "NOP\nBYE\n\n"; got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}

	buf.Reset()
	if err := WriteLine(&buf, strings.Repeat("x", MaxLineLen)+"\n"); err != nil {
		t.Errorf("WriteLine of a maximal line -> %v", err)
	}
	if err := WriteLine(&buf, strings.Repeat("x", MaxLineLen+1)); err != ErrLineTooLong {
		t.Errorf("WriteLine of an oversize line -> %v, want ErrLineTooLong", err)
	}
}

func TestWriteLine_WriteError(t *testing.T) {
	r, w := must.Pipe()
	r.Close()
	defer w.Close()
	err := WriteLine(w, "NOP")
	if err == nil || !strings.HasPrefix(err.Error(), "sending line to fd ") {
		t.Errorf("WriteLine to a broken pipe -> %v", err)
	}
}
