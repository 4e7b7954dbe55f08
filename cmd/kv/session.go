package kv

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/lockmgr"
)

// session evaluates command lines against one client. Besides the commands of
// client.Do it understands MULTI, EXEC, DISCARD and WATCH for pipelines and
// LOCK / UNLOCK for the lock manager.
type session struct {
	conn  client.IRedis
	locks lockmgr.ILockManager
	out   io.Writer

	tx    *client.Pipeline // pipeline of the current MULTI block
	multi bool
}

func newSession(conn client.IRedis, out io.Writer) *session {
	return &session{
		conn:  conn,
		locks: lockmgr.NewLockManager(conn),
		out:   out,
	}
}

// pipeline returns the pending pipeline, creating it on first use
func (s *session) pipeline() *client.Pipeline {
	if s.tx == nil {
		s.tx = s.conn.Pipeline()
	}
	return s.tx
}

// runScript evaluates every line of r. Empty lines and lines starting with # are skipped.
// Command errors are printed and do not stop the script, syntax errors do.
func (s *session) runScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.runLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if s.multi {
		return errors.New("script ended inside MULTI")
	}
	return nil
}

// runLine evaluates a single command line and prints its reply
func (s *session) runLine(line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	reply, err := s.eval(strings.ToUpper(args[0]), args[0], args[1:])
	if err != nil {
		writeError(s.out, err)
		return nil
	}
	writeReply(s.out, reply, "")
	return nil
}

func (s *session) eval(name, raw string, args []string) (any, error) {
	switch name {
	case "MULTI":
		if s.multi {
			return nil, client.NewReplyError("ERR", "MULTI calls can not be nested")
		}
		s.pipeline()
		s.multi = true
		return "OK", nil

	case "WATCH":
		if s.multi {
			return nil, client.NewReplyError("ERR", "WATCH inside MULTI is not allowed")
		}
		if len(args) == 0 {
			return nil, client.NewReplyError("ERR", "wrong number of arguments for 'watch' command")
		}
		if err := s.pipeline().Watch(args...); err != nil {
			return nil, err
		}
		return "OK", nil

	case "DISCARD":
		if !s.multi {
			return nil, client.NewReplyError("ERR", "DISCARD without MULTI")
		}
		s.tx.Discard()
		s.tx, s.multi = nil, false
		return "OK", nil

	case "EXEC":
		if !s.multi {
			return nil, client.NewReplyError("ERR", "EXEC without MULTI")
		}
		tx := s.tx
		s.tx, s.multi = nil, false
		results, err := tx.Execute()
		if errors.Is(err, client.ErrWatch) {
			return nil, nil
		}
		var execErr *client.ExecError
		if errors.As(err, &execErr) {
			// the results of the operations before the failure are kept
			return append(results, execErr.Err), nil
		}
		return results, err

	case "LOCK":
		if len(args) < 1 || len(args) > 2 {
			return nil, client.NewReplyError("ERR", "wrong number of arguments for 'lock' command")
		}
		var timeout uint64
		if len(args) == 2 {
			t, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return nil, client.NewReplyError("ERR", "timeout is not an integer or out of range")
			}
			timeout = t
		}
		ok, owner, err := s.locks.AcquireLock(args[0], timeout)
		if err != nil || !ok {
			return nil, err
		}
		return hex.EncodeToString(owner), nil

	case "UNLOCK":
		if len(args) != 2 {
			return nil, client.NewReplyError("ERR", "wrong number of arguments for 'unlock' command")
		}
		owner, err := hex.DecodeString(args[1])
		if err != nil {
			return nil, client.NewReplyError("ERR", "owner must be hex encoded")
		}
		return s.locks.ReleaseLock(args[0], owner)
	}

	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}
	if s.multi {
		s.tx.Send(raw, anyArgs...)
		return "QUEUED", nil
	}
	return s.conn.Do(raw, anyArgs...)
}

// --------------------------------------------------------------------------
// Parsing and printing
// --------------------------------------------------------------------------

// splitArgs splits a command line into arguments. Arguments are separated by
// whitespace, double quoted arguments may contain whitespace and the escapes
// \", \\, \n, \t and \xHH.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quoted && c == '\\':
			if i+1 >= len(line) {
				return nil, errors.New("unterminated escape sequence")
			}
			i++
			switch line[i] {
			case 'n':
				current.WriteByte('\n')
			case 't':
				current.WriteByte('\t')
			case 'x':
				if i+2 >= len(line) {
					return nil, errors.New("invalid \\x escape")
				}
				b, err := hex.DecodeString(line[i+1 : i+3])
				if err != nil {
					return nil, errors.New("invalid \\x escape")
				}
				current.Write(b)
				i += 2
			default:
				current.WriteByte(line[i])
			}
		case c == '"':
			if quoted && i+1 < len(line) && line[i+1] != ' ' && line[i+1] != '\t' {
				return nil, errors.New("closing quote must be followed by a space")
			}
			quoted = !quoted
			inArg = true
		case !quoted && (c == ' ' || c == '\t'):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteByte(c)
			inArg = true
		}
	}
	if quoted {
		return nil, errors.New("unbalanced quotes")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// writeReply prints a reply in the style of redis-cli
func writeReply(w io.Writer, reply any, indent string) {
	switch r := reply.(type) {
	case nil:
		fmt.Fprintln(w, "(nil)")
	case error:
		writeError(w, r)
	case string:
		if r == "OK" || r == "QUEUED" || r == "PONG" {
			fmt.Fprintln(w, r)
			return
		}
		fmt.Fprintln(w, strconv.Quote(r))
	case []byte:
		fmt.Fprintln(w, strconv.Quote(string(r)))
	case bool:
		if r {
			fmt.Fprintln(w, "(integer) 1")
		} else {
			fmt.Fprintln(w, "(integer) 0")
		}
	case int64:
		fmt.Fprintf(w, "(integer) %d\n", r)
	case uint64:
		fmt.Fprintf(w, "(integer) %d\n", r)
	case []any:
		if len(r) == 0 {
			fmt.Fprintln(w, "(empty array)")
			return
		}
		writeArray(w, r, indent)
	case map[string]any:
		fields := make([]string, 0, len(r))
		for f := range r {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		flat := make([]any, 0, 2*len(fields))
		for _, f := range fields {
			flat = append(flat, f, r[f])
		}
		if len(flat) == 0 {
			fmt.Fprintln(w, "(empty array)")
			return
		}
		writeArray(w, flat, indent)
	default:
		fmt.Fprintf(w, "%v\n", r)
	}
}

func writeArray(w io.Writer, values []any, indent string) {
	width := len(strconv.Itoa(len(values)))
	for i, v := range values {
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		if i == 0 {
			fmt.Fprint(w, prefix)
		} else {
			fmt.Fprint(w, indent+prefix)
		}
		writeReply(w, v, indent+strings.Repeat(" ", len(prefix)))
	}
}

func writeError(w io.Writer, err error) {
	fmt.Fprintf(w, "(error) %v\n", err)
}
