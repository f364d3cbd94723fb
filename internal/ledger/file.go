package ledger

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// FileLedger persists processed ids as a newline-delimited text file.
type FileLedger struct {
	path string
	set  *memSet
	file *os.File
}

// NewFile creates a file-backed ledger at the given path. The file is
// created on first append if it does not exist.
func NewFile(path string) *FileLedger {
	return &FileLedger{path: path, set: newMemSet()}
}

func (l *FileLedger) Load(_ context.Context) error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.set.reset(make(map[string]struct{}))
			return nil
		}
		return eris.Wrapf(err, "ledger: open %s", l.path)
	}
	defer f.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrapf(err, "ledger: read %s", l.path)
	}

	l.set.reset(ids)
	return nil
}

func (l *FileLedger) IsProcessed(leadID string) bool {
	return l.set.has(leadID)
}

func (l *FileLedger) MarkProcessed(_ context.Context, leadID string) error {
	// The set is updated even when the append fails, so the current run
	// cannot double-submit; the duplicate risk moves to the next run.
	defer l.set.add(leadID)

	if l.file == nil {
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return eris.Wrapf(err, "ledger: open %s for append", l.path)
		}
		l.file = f
	}

	if _, err := l.file.WriteString(leadID + "\n"); err != nil {
		return eris.Wrapf(err, "ledger: append %s", leadID)
	}
	// Each id is durable before the next lead is processed.
	if err := l.file.Sync(); err != nil {
		return eris.Wrapf(err, "ledger: sync after %s", leadID)
	}
	return nil
}

func (l *FileLedger) Count() int {
	return l.set.len()
}

func (l *FileLedger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return eris.Wrapf(err, "ledger: close %s", l.path)
}
