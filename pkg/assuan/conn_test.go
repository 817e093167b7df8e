package assuan

import (
	"bytes"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shlevy/gnupg/pkg/logutil"
	"github.com/shlevy/gnupg/pkg/must"
	"github.com/shlevy/gnupg/pkg/testutil"
)

const fakeServer = `
if [ "$1" != --server ]; then
	echo "ERR 1 bad argument $1"
	exit 1
fi
echo "OK Pleased to meet you"
while read cmd; do
	case "$cmd" in
	NOP) echo OK ;;
	GETINFO*) echo "S PROGRESS 1"; echo "D some data"; echo END; echo OK ;;
	FAIL) echo "ERR 1 failed" ;;
	BYE) echo "OK closing connection"; exit 0 ;;
	*) echo "ERR 2 unknown command" ;;
	esac
done
`

func writeServer(t *testing.T, body string) string {
	path := filepath.Join(testutil.TempDir(t), "fakeserver")
	must.WriteScript(path, body)
	return path
}

func startServer(t *testing.T, body string, logger *log.Logger) *Conn {
	c, err := Start(&StartConfig{Path: writeServer(t, body), Logger: logger})
	if err != nil {
		t.Fatalf("Start -> %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestConn_Exchange(t *testing.T) {
	var trace bytes.Buffer
	c := startServer(t, fakeServer, logutil.New(&trace, ""))

	exchanges := []struct {
		send string
		want Kind
	}{
		{"NOP", OK},
		{"GETINFO version", OK},
		{"FAIL", ERR},
		{"RESET", ERR},
		{"BYE", OK},
	}
	for _, ex := range exchanges {
		must.OK(c.Send(ex.send))
		line, err := c.Expect()
		if err != nil {
			t.Fatalf("Expect after %s -> %v", ex.send, err)
		}
		if line.Kind != ex.want {
			t.Errorf("Expect after %s -> %v, want kind %v", ex.send, line, ex.want)
		}
	}

	for _, want := range []string{
		"starting server `", "got line `OK Pleased to meet you'",
		"sending `GETINFO version'", "got line `D some data'", "got line `END'",
	} {
		if !strings.Contains(trace.String(), want) {
			t.Errorf("trace does not contain %q:\n%s", want, trace.String())
		}
	}
}

func TestConn_RecvSeesStatusLines(t *testing.T) {
	c := startServer(t, fakeServer, nil)
	must.OK(c.Send("GETINFO version"))

	var kinds []Kind
	for {
		line := must.OK1(c.Recv())
		kinds = append(kinds, line.Kind)
		if line.Kind.Terminal() {
			break
		}
	}
	if want := []Kind{STAT, DATA, END, OK}; !kindsEqual(kinds, want) {
		t.Errorf("got kinds %v, want %v", kinds, want)
	}
}

func kindsEqual(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConn_ServerExitIsIncompleteLine(t *testing.T) {
	c := startServer(t, fakeServer, nil)
	must.OK(c.Send("BYE"))
	must.OK1(c.Expect())

	if _, err := c.Expect(); !errors.Is(err, ErrIncompleteLine) {
		t.Errorf("Expect after server exit -> %v, want ErrIncompleteLine", err)
	}
}

func TestStart_Errors(t *testing.T) {
	tests := []struct {
		name    string
		server  string
		wantMsg string
	}{
		{"error greeting", `echo "ERR 1 go away"`, "no greeting message"},
		{"status greeting", `echo "S HELLO"`, "no greeting message"},
		{"silent exit", `exit 0`, "no greeting message: received incomplete line"},
		{"garbage greeting", `echo "HELLO"`, "no greeting message: invalid line type (HELLO)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Start(&StartConfig{Path: writeServer(t, test.server)})
			if !errors.Is(err, ErrNoGreeting) || !strings.HasPrefix(err.Error(), test.wantMsg) {
				t.Errorf("Start -> %v, want error starting with %q", err, test.wantMsg)
			}
		})
	}
}

func TestStart_ExecFailure(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "nonexistent")
	_, err := Start(&StartConfig{Path: path})
	if err == nil || !strings.HasPrefix(err.Error(), "exec failed for `"+path+"'") {
		t.Errorf("Start -> %v, want exec failure", err)
	}
}

func TestStart_DefaultPath(t *testing.T) {
	testutil.InTempDir(t)
	_, err := Start(&StartConfig{})
	if err == nil || !strings.Contains(err.Error(), DefaultServerPath) {
		t.Errorf("Start -> %v, want error mentioning %s", err, DefaultServerPath)
	}
}
