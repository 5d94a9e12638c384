package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	InLogName  = "in.log"
	OutLogName = "out.log"
)

// Record is one line of the event log.
type Record struct {
	Time    int64             `json:"time"`
	Service string            `json:"service"`
	Action  string            `json:"action"`
	Headers map[string]string `json:"headers,omitempty"`
	Data    string            `json:"data"`
}

// Log appends consumed and published events as JSON lines so they can be
// replayed later.
type Log struct {
	mu  sync.Mutex
	dir string
	in  *os.File
	out *os.File
}

func OpenLog(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	in, err := os.OpenFile(filepath.Join(dir, InLogName), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	out, err := os.OpenFile(filepath.Join(dir, OutLogName), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		in.Close()
		return nil, err
	}
	return &Log{dir: dir, in: in, out: out}, nil
}

func (l *Log) In(rec Record) error  { return l.write(l.in, rec) }
func (l *Log) Out(rec Record) error { return l.write(l.out, rec) }

func (l *Log) write(f *os.File, rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = f.Write(append(line, '\n'))
	return err
}

func (l *Log) InPath() string  { return filepath.Join(l.dir, InLogName) }
func (l *Log) OutPath() string { return filepath.Join(l.dir, OutLogName) }

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	errIn := l.in.Close()
	errOut := l.out.Close()
	if errIn != nil {
		return errIn
	}
	return errOut
}

// ReadLog calls fn for every record in the log file at path.
func ReadLog(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}
