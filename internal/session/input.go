package session

import (
	"bufio"
	"errors"
	"io"
)

// errInterrupted is returned by lineSource.next when the session is shut
// down while waiting for input.
var errInterrupted = errors.New("input wait interrupted")

type lineResult struct {
	line string
	err  error
}

// lineSource turns a blocking line reader into a channel so a wait for input
// can be abandoned. The goroutine that owns the reader exits after the next
// line (or error) once done is closed; it never touches the connection.
type lineSource struct {
	lines <-chan lineResult
}

func readLines(r io.Reader, done <-chan struct{}) *lineSource {
	out := make(chan lineResult)
	go func() {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" && err != nil {
				// deliver a final unterminated line before the error
				if !deliver(out, done, lineResult{line: line}) {
					return
				}
				line = ""
			}
			if !deliver(out, done, lineResult{line: line, err: err}) || err != nil {
				return
			}
		}
	}()
	return &lineSource{lines: out}
}

func deliver(out chan<- lineResult, done <-chan struct{}, res lineResult) bool {
	select {
	case out <- res:
		return true
	case <-done:
		return false
	}
}

// next blocks until a line is available, the input ends (io.EOF), or done
// is closed (errInterrupted). The returned line keeps its terminator.
func (ls *lineSource) next(done <-chan struct{}) (string, error) {
	select {
	case res := <-ls.lines:
		return res.line, res.err
	case <-done:
		return "", errInterrupted
	}
}
