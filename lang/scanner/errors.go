package scanner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yarel-lang/yarel/lang/token"
)

// An Error describes a single lexical error at a source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// ErrorList accumulates lexical or syntactic errors so that a single pass
// can report more than one problem. Grounded on the teacher's own
// scanner.ErrorList accumulation pattern.
type ErrorList []*Error

func (l *ErrorList) Add(pos token.Pos, msg string) {
	*l = append(*l, &Error{Pos: pos, Msg: msg})
}

func (l ErrorList) Sort() {
	sort.Slice(l, func(i, j int) bool { return l[i].Pos < l[j].Pos })
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	for i, e := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Err returns l as an error, or nil if l is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
